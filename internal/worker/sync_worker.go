// Package worker keeps the local mirror fresh by pulling recent months from
// the remote API on a fixed interval.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Source is the slice of the API client the worker pulls from.
type Source interface {
	ListTransactions(ctx context.Context, month core.Month) ([]core.Transaction, error)
	GetBudget(ctx context.Context, month core.Month) (core.Money, error)
}

// Sink is where pulled snapshots land. Satisfied by *mirror.Repository.
type Sink interface {
	ReplaceMonth(ctx context.Context, month core.Month, txs []core.Transaction) error
	SaveBudget(ctx context.Context, month core.Month, amount core.Money) error
}

// SyncWorker mirrors the most recent months of the remote ledger.
type SyncWorker struct {
	source   Source
	sink     Sink
	months   int
	interval time.Duration
	logger   *log.Logger
}

func NewSyncWorker(source Source, sink Sink, months int, interval time.Duration, logger *log.Logger) *SyncWorker {
	if months < 1 {
		months = 1
	}
	return &SyncWorker{
		source:   source,
		sink:     sink,
		months:   months,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Run syncs once immediately, then on every tick until the context is
// cancelled. A failed cycle is logged and retried on the next tick.
func (w *SyncWorker) Run(ctx context.Context) error {
	w.logger.Info("Sync worker started",
		"interval", w.interval.String(),
		"months", w.months)

	if err := w.SyncOnce(ctx); err != nil {
		w.logger.Error("Initial sync failed", log.FieldError, err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Sync worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := w.SyncOnce(ctx); err != nil {
				w.logger.Error("Sync cycle failed", log.FieldError, err)
			}
		}
	}
}

// SyncOnce pulls the current month and the months-1 before it. Months are
// synced independently; one failing month does not block the others, but the
// cycle reports an error if any month failed.
func (w *SyncWorker) SyncOnce(ctx context.Context) error {
	start := time.Now()
	month := core.CurrentMonth()

	var errs []error
	for i := 0; i < w.months; i++ {
		if err := w.syncMonth(ctx, month); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			w.logger.Error("Month sync failed",
				log.FieldMonth, month.String(),
				log.FieldError, err)
			errs = append(errs, fmt.Errorf("%s: %w", month.String(), err))
		}
		month = month.Prev()
	}

	if len(errs) > 0 {
		return fmt.Errorf("sync cycle: %w", errors.Join(errs...))
	}

	w.logger.Info("Sync cycle complete",
		"months", w.months,
		log.FieldDuration, time.Since(start).String())
	return nil
}

func (w *SyncWorker) syncMonth(ctx context.Context, month core.Month) error {
	txs, err := w.source.ListTransactions(ctx, month)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	if err := w.sink.ReplaceMonth(ctx, month, txs); err != nil {
		return fmt.Errorf("replace month: %w", err)
	}

	budget, err := w.source.GetBudget(ctx, month)
	if err != nil {
		return fmt.Errorf("get budget: %w", err)
	}
	if err := w.sink.SaveBudget(ctx, month, budget); err != nil {
		return fmt.Errorf("save budget: %w", err)
	}

	w.logger.Debug("Month mirrored",
		log.FieldMonth, month.String(),
		log.FieldRowCount, len(txs))
	return nil
}
