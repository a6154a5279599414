// Package worker mirrors expense events into a spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"tripplan/internal/events"
	"tripplan/internal/log"
	"tripplan/internal/metrics"
	"tripplan/internal/sheets"
)

// Consumer feeds events to a handler until ctx is done. *amqp.Client satisfies it.
type Consumer interface {
	Consume(ctx context.Context, h events.Handler) error
}

// BroadcastConsumer reads from an in-process broadcaster.
type BroadcastConsumer struct {
	Broadcaster *events.Broadcaster
	Logger      *log.Logger
}

func (c BroadcastConsumer) Consume(ctx context.Context, h events.Handler) error {
	ch, cancel := c.Broadcaster.Subscribe(events.Types()...)
	defer cancel()
	events.Run(ctx, ch, h, func(ev events.Event, err error) {
		if c.Logger != nil {
			c.Logger.ErrorContext(ctx, "Failed to handle event",
				log.FieldEvent, ev.Type,
				log.FieldPlanID, ev.PlanID,
				log.FieldError, err)
		}
	})
	return ctx.Err()
}

type MirrorWorker struct {
	sheets  sheets.Mirror
	logger  *log.Logger
	metrics *metrics.Metrics
}

func NewMirrorWorker(mirror sheets.Mirror, logger *log.Logger, m *metrics.Metrics) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{sheets: mirror, logger: logger.WithComponent(log.ComponentWorker), metrics: m}
}

// Handle applies one event to the spreadsheet.
func (w *MirrorWorker) Handle(ctx context.Context, ev events.Event) error {
	w.metrics.Event(string(ev.Type), "in")

	switch ev.Type {
	case events.ExpenseCreated:
		ref, err := w.sheets.Append(ctx, *ev.Expense)
		if err != nil {
			return fmt.Errorf("append expense %s: %w", ev.Expense.ID, err)
		}
		w.logger.InfoContext(ctx, "Expense mirrored",
			log.FieldExpenseID, ev.Expense.ID,
			log.FieldPlanID, ev.PlanID,
			"sheets_ref", ref)

	case events.ExpenseDeleted:
		if err := w.sheets.DeleteExpense(ctx, ev.Expense.ID); err != nil {
			return fmt.Errorf("delete expense %s: %w", ev.Expense.ID, err)
		}
		w.logger.InfoContext(ctx, "Mirrored expense removed",
			log.FieldExpenseID, ev.Expense.ID,
			log.FieldPlanID, ev.PlanID)

	case events.PlanDeleted:
		rows, err := w.sheets.ListExpenses(ctx, ev.PlanID)
		if err != nil {
			return fmt.Errorf("list mirrored expenses: %w", err)
		}
		var errs []error
		for _, e := range rows {
			if err := w.sheets.DeleteExpense(ctx, e.ID); err != nil {
				errs = append(errs, fmt.Errorf("delete expense %s: %w", e.ID, err))
			}
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}
		w.logger.InfoContext(ctx, "Mirrored plan removed",
			log.FieldPlanID, ev.PlanID,
			"rows", len(rows))

	default:
		w.logger.WarnContext(ctx, "Ignoring unknown event", log.FieldEvent, ev.Type)
	}
	return nil
}

// Run consumes from every source until ctx is done or one source fails.
func (w *MirrorWorker) Run(ctx context.Context, sources ...Consumer) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			return src.Consume(gctx, w.Handle)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
