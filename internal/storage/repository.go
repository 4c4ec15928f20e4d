// Package storage implements the record store on SQLite.
//
// One table per record kind, primary key = the generated record id, with an
// index on user_id standing in for the secondary index that serves
// user-scoped listing. Every operation is a single round trip with no
// transaction spanning calls: concurrent writers to the same id are
// last-write-wins by design.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned by single-record reads when no row matches the
// (id, user) pair. Callers decide whether that surfaces as an empty object
// or an error.
var ErrNotFound = errors.New("record not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := applySchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// applySchema brings the database file up to the current embedded migration
// version. It runs on its own connection so the migration lock never touches
// the serving pool.
func applySchema(dbPath string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("assemble migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the store is reachable; used by the readiness probe.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ---- expenses ----

// ListExpenses returns all expense records for one user, in store-native
// order (no ORDER BY; callers must not rely on stability).
func (r *Repository) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount, category, description, date, created_at, updated_at
		 FROM expenses WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		var e core.Expense
		var amount float64
		if err := rows.Scan(&e.ID, &e.UserID, &amount, &e.Category, &e.Description, &e.Date, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Amount = core.Amount(amount)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// GetExpense fetches one record scoped by both id and owner. A record owned
// by a different user is indistinguishable from an absent one.
func (r *Repository) GetExpense(ctx context.Context, id, userID string) (core.Expense, error) {
	var e core.Expense
	var amount float64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, amount, category, description, date, created_at, updated_at
		 FROM expenses WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&e.ID, &e.UserID, &amount, &e.Category, &e.Description, &e.Date, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	e.Amount = core.Amount(amount)
	return e, nil
}

func (r *Repository) PutExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, user_id, amount, category, description, date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Amount.Float64(), e.Category, e.Description, e.Date, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

// UpdateExpense overwrites the mutable fields of an expense. Updating an
// absent or foreign record affects zero rows and is a silent no-op.
func (r *Repository) UpdateExpense(ctx context.Context, id, userID string, e core.Expense) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET amount = ?, category = ?, description = ?, date = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		e.Amount.Float64(), e.Category, e.Description, e.Date, e.UpdatedAt, id, userID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

// DeleteExpense removes by primary key within the owner's scope. Deleting a
// nonexistent id is a documented no-op, not an error.
func (r *Repository) DeleteExpense(ctx context.Context, id, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// ---- budgets ----

func (r *Repository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category, amount, alert_threshold, period, created_at, updated_at
		 FROM budgets WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	budgets := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *Repository) GetBudget(ctx context.Context, id, userID string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category, amount, alert_threshold, period, created_at, updated_at
		 FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (r *Repository) PutBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, category, amount, alert_threshold, period, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Category, b.Amount.Float64(), b.AlertThreshold.Int(), string(b.Period), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (r *Repository) UpdateBudget(ctx context.Context, id, userID string, b core.Budget) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET category = ?, amount = ?, alert_threshold = ?, period = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		b.Category, b.Amount.Float64(), b.AlertThreshold.Int(), string(b.Period), b.UpdatedAt, id, userID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

func (r *Repository) DeleteBudget(ctx context.Context, id, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// ---- categories ----

func (r *Repository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, color, icon, created_at, updated_at
		 FROM categories WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.Icon, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *Repository) GetCategory(ctx context.Context, id, userID string) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, color, icon, created_at, updated_at
		 FROM categories WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.Icon, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *Repository) PutCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, color, icon, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Color, c.Icon, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *Repository) UpdateCategory(ctx context.Context, id, userID string, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, color = ?, icon = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		c.Name, c.Color, c.Icon, c.UpdatedAt, id, userID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanBudget(s scanner) (core.Budget, error) {
	var b core.Budget
	var amount float64
	var threshold int
	var period string
	err := s.Scan(&b.ID, &b.UserID, &b.Category, &amount, &threshold, &period, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Budget{}, err
		}
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	b.Amount = core.Amount(amount)
	b.AlertThreshold = core.Percent(threshold)
	b.Period = core.Period(period)
	return b, nil
}
