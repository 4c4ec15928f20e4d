package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testExpense(id, userID string) core.Expense {
	ts := core.Timestamp(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	return core.Expense{
		ID:          id,
		UserID:      userID,
		Amount:      core.Amount(42.5),
		Category:    "Food",
		Description: "groceries",
		Date:        "2024-06-01",
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

func TestExpenseRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	e := testExpense("expense-1-abc", "user-a")
	if err := repo.PutExpense(ctx, e); err != nil {
		t.Fatalf("PutExpense: %v", err)
	}

	got, err := repo.GetExpense(ctx, e.ID, "user-a")
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if got != e {
		t.Errorf("got %+v, want %+v", got, e)
	}
}

func TestGetExpenseScopedByOwner(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	e := testExpense("expense-1-abc", "user-a")
	if err := repo.PutExpense(ctx, e); err != nil {
		t.Fatalf("PutExpense: %v", err)
	}

	if _, err := repo.GetExpense(ctx, e.ID, "user-b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user get: got %v, want ErrNotFound", err)
	}
	if _, err := repo.GetExpense(ctx, "expense-missing", "user-a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id get: got %v, want ErrNotFound", err)
	}
}

func TestListExpensesByUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, e := range []core.Expense{
		testExpense("expense-1-aaa", "user-a"),
		testExpense("expense-2-bbb", "user-a"),
		testExpense("expense-3-ccc", "user-b"),
	} {
		if err := repo.PutExpense(ctx, e); err != nil {
			t.Fatalf("PutExpense: %v", err)
		}
	}

	got, err := repo.ListExpenses(ctx, "user-a")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d expenses, want 2", len(got))
	}
	for _, e := range got {
		if e.UserID != "user-a" {
			t.Errorf("leaked record for %s", e.UserID)
		}
	}
}

func TestListExpensesEmpty(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.ListExpenses(context.Background(), "user-none")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if got == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Errorf("got %d expenses, want 0", len(got))
	}
}

func TestUpdateExpense(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	e := testExpense("expense-1-abc", "user-a")
	if err := repo.PutExpense(ctx, e); err != nil {
		t.Fatalf("PutExpense: %v", err)
	}

	e.Amount = core.Amount(99.9)
	e.Description = "restaurant"
	e.UpdatedAt = core.Timestamp(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))
	if err := repo.UpdateExpense(ctx, e.ID, "user-a", e); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}

	got, err := repo.GetExpense(ctx, e.ID, "user-a")
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if got.Amount.Float64() != 99.9 || got.Description != "restaurant" {
		t.Errorf("update not applied: %+v", got)
	}
	if got.CreatedAt != e.CreatedAt {
		t.Errorf("created_at changed on update: %s", got.CreatedAt)
	}
}

func TestUpdateExpenseNoRowsIsNoOp(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	e := testExpense("expense-1-abc", "user-a")
	if err := repo.PutExpense(ctx, e); err != nil {
		t.Fatalf("PutExpense: %v", err)
	}

	// Wrong owner and wrong id both touch zero rows without error.
	if err := repo.UpdateExpense(ctx, e.ID, "user-b", e); err != nil {
		t.Errorf("cross-user update: %v", err)
	}
	if err := repo.UpdateExpense(ctx, "expense-missing", "user-a", e); err != nil {
		t.Errorf("missing id update: %v", err)
	}

	got, err := repo.GetExpense(ctx, e.ID, "user-a")
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if got != e {
		t.Errorf("record mutated by scoped-out update: %+v", got)
	}
}

func TestDeleteExpense(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	e := testExpense("expense-1-abc", "user-a")
	if err := repo.PutExpense(ctx, e); err != nil {
		t.Fatalf("PutExpense: %v", err)
	}

	if err := repo.DeleteExpense(ctx, e.ID, "user-b"); err != nil {
		t.Errorf("cross-user delete: %v", err)
	}
	if _, err := repo.GetExpense(ctx, e.ID, "user-a"); err != nil {
		t.Fatalf("record deleted by foreign user: %v", err)
	}

	if err := repo.DeleteExpense(ctx, e.ID, "user-a"); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if _, err := repo.GetExpense(ctx, e.ID, "user-a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: got %v, want ErrNotFound", err)
	}

	// Deleting again is a no-op.
	if err := repo.DeleteExpense(ctx, e.ID, "user-a"); err != nil {
		t.Errorf("repeat delete: %v", err)
	}
}

func TestBudgetRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	ts := core.Timestamp(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	b := core.Budget{
		ID:             "budget-1-abc",
		UserID:         "user-a",
		Category:       "Food",
		Amount:         core.Amount(500),
		AlertThreshold: core.Percent(80),
		Period:         core.Monthly,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	if err := repo.PutBudget(ctx, b); err != nil {
		t.Fatalf("PutBudget: %v", err)
	}

	got, err := repo.GetBudget(ctx, b.ID, "user-a")
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	if got != b {
		t.Errorf("got %+v, want %+v", got, b)
	}

	b.Amount = core.Amount(600)
	b.Period = core.Yearly
	if err := repo.UpdateBudget(ctx, b.ID, "user-a", b); err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}
	got, err = repo.GetBudget(ctx, b.ID, "user-a")
	if err != nil {
		t.Fatalf("GetBudget after update: %v", err)
	}
	if got.Amount.Float64() != 600 || got.Period != core.Yearly {
		t.Errorf("update not applied: %+v", got)
	}

	if err := repo.DeleteBudget(ctx, b.ID, "user-a"); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	if _, err := repo.GetBudget(ctx, b.ID, "user-a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: got %v, want ErrNotFound", err)
	}
}

func TestCategoryRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	ts := core.Timestamp(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	c := core.Category{
		ID:        "category-1-abc",
		UserID:    "user-a",
		Name:      "Transport",
		Color:     core.DefaultCategoryColor,
		Icon:      core.DefaultCategoryIcon,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := repo.PutCategory(ctx, c); err != nil {
		t.Fatalf("PutCategory: %v", err)
	}

	list, err := repo.ListCategories(ctx, "user-a")
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(list) != 1 || list[0] != c {
		t.Errorf("got %+v, want [%+v]", list, c)
	}

	c.Name = "Travel"
	c.Color = "#FF0000"
	if err := repo.UpdateCategory(ctx, c.ID, "user-a", c); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	got, err := repo.GetCategory(ctx, c.ID, "user-a")
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if got.Name != "Travel" || got.Color != "#FF0000" {
		t.Errorf("update not applied: %+v", got)
	}

	if err := repo.DeleteCategory(ctx, c.ID, "user-a"); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if _, err := repo.GetCategory(ctx, c.ID, "user-a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: got %v, want ErrNotFound", err)
	}
}

func TestPing(t *testing.T) {
	repo := newTestRepository(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fintrack.db")

	repo, err := NewRepository(path)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	e := testExpense("expense-1718100000000-a1b2c3d4e", "user-a")
	if err := repo.PutExpense(ctx, e); err != nil {
		t.Fatalf("PutExpense: %v", err)
	}
	repo.Close()

	// Re-opening re-runs the schema check; an up-to-date file is a no-op
	// and existing rows survive.
	repo, err = NewRepository(path)
	if err != nil {
		t.Fatalf("NewRepository on existing file: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	got, err := repo.GetExpense(ctx, e.ID, "user-a")
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if got.ID != e.ID {
		t.Errorf("ID = %q, want %q", got.ID, e.ID)
	}
}
