// Package services orchestrates record operations across the store, the
// event stream, and the analytics cache.
package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Record kinds, doubling as id prefixes and event kinds.
const (
	KindExpense  = "expense"
	KindBudget   = "budget"
	KindCategory = "category"
)

// Publisher is satisfied by the AMQP client. A nil Publisher disables the
// event stream without changing any write path.
type Publisher interface {
	PublishRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error
}

// RecordService is the write/read path behind every handler. Writes go to
// SQLite first; the change event is published best-effort afterward, so a
// broker outage never fails a request.
type RecordService struct {
	store        *storage.Repository
	publisher    Publisher
	summaryCache *cache.LRU[analytics.Summary]
	logger       *log.Logger
	now          func() time.Time
}

func NewRecordService(store *storage.Repository, publisher Publisher, summaryCache *cache.LRU[analytics.Summary], logger *log.Logger) *RecordService {
	return &RecordService{
		store:        store,
		publisher:    publisher,
		summaryCache: summaryCache,
		logger:       logger,
		now:          time.Now,
	}
}

// Ping reports whether the backing store is reachable.
func (s *RecordService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ---- expenses ----

// CreateExpense validates, assigns identity and timestamps, persists, and
// announces the change.
func (s *RecordService) CreateExpense(ctx context.Context, userID string, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	now := s.now()
	e.ID = core.NewRecordID(KindExpense)
	e.UserID = userID
	e.CreatedAt = core.Timestamp(now)
	e.UpdatedAt = core.Timestamp(now)

	if err := s.store.PutExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.invalidateSummary(userID)
	s.publish(ctx, KindExpense, amqp.OpCreated, e.ID, userID)
	return e, nil
}

func (s *RecordService) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, userID)
}

func (s *RecordService) GetExpense(ctx context.Context, id, userID string) (core.Expense, error) {
	return s.store.GetExpense(ctx, id, userID)
}

// UpdateExpense overwrites the mutable fields of an expense. Targets that do
// not exist, or belong to another user, are silently skipped.
func (s *RecordService) UpdateExpense(ctx context.Context, id, userID string, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	e.UpdatedAt = core.Timestamp(s.now())
	if err := s.store.UpdateExpense(ctx, id, userID, e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	s.invalidateSummary(userID)
	s.publish(ctx, KindExpense, amqp.OpUpdated, id, userID)
	return nil
}

func (s *RecordService) DeleteExpense(ctx context.Context, id, userID string) error {
	if err := s.store.DeleteExpense(ctx, id, userID); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.invalidateSummary(userID)
	s.publish(ctx, KindExpense, amqp.OpDeleted, id, userID)
	return nil
}

// ---- budgets ----

func (s *RecordService) CreateBudget(ctx context.Context, userID string, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	now := s.now()
	b.ID = core.NewRecordID(KindBudget)
	b.UserID = userID
	b.CreatedAt = core.Timestamp(now)
	b.UpdatedAt = core.Timestamp(now)

	if err := s.store.PutBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	s.publish(ctx, KindBudget, amqp.OpCreated, b.ID, userID)
	return b, nil
}

func (s *RecordService) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, userID)
}

func (s *RecordService) GetBudget(ctx context.Context, id, userID string) (core.Budget, error) {
	return s.store.GetBudget(ctx, id, userID)
}

func (s *RecordService) UpdateBudget(ctx context.Context, id, userID string, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}

	b.UpdatedAt = core.Timestamp(s.now())
	if err := s.store.UpdateBudget(ctx, id, userID, b); err != nil {
		return fmt.Errorf("update budget: %w", err)
	}

	s.publish(ctx, KindBudget, amqp.OpUpdated, id, userID)
	return nil
}

func (s *RecordService) DeleteBudget(ctx context.Context, id, userID string) error {
	if err := s.store.DeleteBudget(ctx, id, userID); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}

	s.publish(ctx, KindBudget, amqp.OpDeleted, id, userID)
	return nil
}

// BudgetProgress reports spend against one budget for its current period.
// An unknown or foreign budget id surfaces storage.ErrNotFound.
func (s *RecordService) BudgetProgress(ctx context.Context, id, userID string) (core.Progress, error) {
	b, err := s.store.GetBudget(ctx, id, userID)
	if err != nil {
		return core.Progress{}, err
	}

	expenses, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		return core.Progress{}, fmt.Errorf("list expenses for progress: %w", err)
	}

	return core.BudgetProgress(b, expenses, s.now()), nil
}

// ---- categories ----

func (s *RecordService) CreateCategory(ctx context.Context, userID string, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	now := s.now()
	c.ID = core.NewRecordID(KindCategory)
	c.UserID = userID
	c.ApplyDefaults()
	c.CreatedAt = core.Timestamp(now)
	c.UpdatedAt = core.Timestamp(now)

	if err := s.store.PutCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	s.publish(ctx, KindCategory, amqp.OpCreated, c.ID, userID)
	return c, nil
}

func (s *RecordService) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

func (s *RecordService) GetCategory(ctx context.Context, id, userID string) (core.Category, error) {
	return s.store.GetCategory(ctx, id, userID)
}

func (s *RecordService) UpdateCategory(ctx context.Context, id, userID string, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}

	c.UpdatedAt = core.Timestamp(s.now())
	if err := s.store.UpdateCategory(ctx, id, userID, c); err != nil {
		return fmt.Errorf("update category: %w", err)
	}

	s.publish(ctx, KindCategory, amqp.OpUpdated, id, userID)
	return nil
}

func (s *RecordService) DeleteCategory(ctx context.Context, id, userID string) error {
	if err := s.store.DeleteCategory(ctx, id, userID); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.publish(ctx, KindCategory, amqp.OpDeleted, id, userID)
	return nil
}

// ---- analytics ----

// Summary is a cached read-through over the aggregator. Each user's summary
// is cached separately and dropped whenever one of their expenses changes.
func (s *RecordService) Summary(ctx context.Context, userID string) (analytics.Summary, error) {
	if s.summaryCache != nil {
		if summary, ok := s.summaryCache.Get(userID); ok {
			return summary, nil
		}
	}

	expenses, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		return analytics.Summary{}, fmt.Errorf("list expenses for summary: %w", err)
	}

	summary := analytics.Summarize(expenses, s.now())
	if s.summaryCache != nil {
		s.summaryCache.Set(userID, summary)
	}
	return summary, nil
}

func (s *RecordService) invalidateSummary(userID string) {
	if s.summaryCache != nil {
		s.summaryCache.Delete(userID)
	}
}

// publish is best-effort: a failure is logged and swallowed because the
// record is already durable in SQLite.
func (s *RecordService) publish(ctx context.Context, kind, op, id, userID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordEvent(ctx, amqp.NewRecordEvent(kind, op, id, userID)); err != nil {
		s.logger.ErrorContext(ctx, "publish record event failed",
			log.FieldError, err,
			log.FieldRecordKind, kind,
			log.FieldOperation, op,
			log.FieldRecordID, id)
	}
}
