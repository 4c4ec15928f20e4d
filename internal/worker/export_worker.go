// Package worker turns record change events into journal rows in the export
// spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Journal is the row sink, satisfied by export.SheetsJournal.
type Journal interface {
	AppendRow(ctx context.Context, row []any) error
}

// ExportWorker consumes record events and appends one journal row per event.
// Events carry ids only, so the worker reads the current record from storage
// before writing the row.
type ExportWorker struct {
	store   *storage.Repository
	journal Journal
	logger  *log.Logger
}

func NewExportWorker(store *storage.Repository, journal Journal, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		store:   store,
		journal: journal,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes one change event. A record that vanished between the
// event and this read is journaled without detail rather than retried, since
// the row would never become writable.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.RecordEvent) error {
	row, err := w.buildRow(ctx, ev)
	if err != nil {
		return err
	}

	if err := w.journal.AppendRow(ctx, row); err != nil {
		return fmt.Errorf("journal event: %w", err)
	}

	w.logger.InfoContext(ctx, "event journaled",
		log.FieldRecordKind, ev.Kind,
		log.FieldOperation, ev.Op,
		log.FieldRecordID, ev.ID)
	return nil
}

func (w *ExportWorker) buildRow(ctx context.Context, ev *amqp.RecordEvent) ([]any, error) {
	base := []any{ev.OccurredAt.Format("2006-01-02 15:04:05"), ev.Kind, ev.Op, ev.ID, ev.UserID}

	if ev.Op == amqp.OpDeleted {
		return base, nil
	}

	detail, err := w.recordDetail(ctx, ev)
	if errors.Is(err, storage.ErrNotFound) {
		w.logger.WarnContext(ctx, "record gone before journaling",
			log.FieldRecordKind, ev.Kind,
			log.FieldRecordID, ev.ID)
		return base, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load record for journal: %w", err)
	}
	return append(base, detail...), nil
}

func (w *ExportWorker) recordDetail(ctx context.Context, ev *amqp.RecordEvent) ([]any, error) {
	switch ev.Kind {
	case services.KindExpense:
		e, err := w.store.GetExpense(ctx, ev.ID, ev.UserID)
		if err != nil {
			return nil, err
		}
		return []any{e.Date, e.Category, e.Amount.Float64(), e.Description}, nil
	case services.KindBudget:
		b, err := w.store.GetBudget(ctx, ev.ID, ev.UserID)
		if err != nil {
			return nil, err
		}
		return []any{string(b.Period), b.Category, b.Amount.Float64(), fmt.Sprintf("alert at %d%%", b.AlertThreshold.Int())}, nil
	case services.KindCategory:
		c, err := w.store.GetCategory(ctx, ev.ID, ev.UserID)
		if err != nil {
			return nil, err
		}
		return []any{c.Name, c.Color, c.Icon}, nil
	default:
		return nil, fmt.Errorf("unknown record kind %q", ev.Kind)
	}
}
