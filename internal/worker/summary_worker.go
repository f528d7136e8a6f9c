// Package worker keeps externally exported monthly summaries in sync with
// the store by consuming transaction events.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sherdorkhudoyberdi/expense-tracker/internal/amqp"
	"github.com/sherdorkhudoyberdi/expense-tracker/internal/log"
	"github.com/sherdorkhudoyberdi/expense-tracker/internal/services"
	"github.com/sherdorkhudoyberdi/expense-tracker/internal/sheets"
)

// SummaryWorker re-exports the affected month's summary whenever a
// transaction event arrives. Events carry only identifiers; the current
// numbers always come from the store, so redelivery and reordering are
// safe.
type SummaryWorker struct {
	store  services.Store
	writer sheets.SummaryWriter
}

func NewSummaryWorker(store services.Store, writer sheets.SummaryWriter) *SummaryWorker {
	return &SummaryWorker{
		store:  store,
		writer: writer,
	}
}

// HandleEvent processes a single transaction event.
func (w *SummaryWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"op", ev.Op,
		log.FieldTransactionID, ev.TransactionID,
		log.FieldOwnerID, ev.OwnerID,
		log.FieldYear, ev.Year,
		log.FieldMonth, ev.Month)

	summary, err := w.store.MonthlySummary(ctx, ev.OwnerID, ev.Year, ev.Month)
	if err != nil {
		return fmt.Errorf("load monthly summary: %w", err)
	}

	if w.writer == nil {
		slog.WarnContext(ctx, "No summary writer configured, skipping export")
		return nil
	}

	if err := w.writer.WriteMonthlySummary(ctx, ev.OwnerID, summary); err != nil {
		return fmt.Errorf("export monthly summary: %w", err)
	}

	return nil
}

// Run consumes events until the context is canceled.
func (w *SummaryWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeTransactionEvents(ctx, func(ev *amqp.TransactionEvent) error {
		return w.HandleEvent(ctx, ev)
	})
}
