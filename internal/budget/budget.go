// Package budget fetches and saves the per-month spending limit. Budgets
// change rarely, so reads go through a small TTL cache; a save invalidates
// straight into it.
package budget

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Backend is the slice of the API client the service needs.
type Backend interface {
	GetBudget(ctx context.Context, month core.Month) (core.Money, error)
	SaveBudget(ctx context.Context, month core.Month, amount core.Money) error
}

// Service reads and writes monthly budgets.
type Service struct {
	backend Backend
	cache   *cache.LRU[core.Money]
	logger  *log.Logger
}

func NewService(backend Backend, logger *log.Logger) *Service {
	return &Service{
		backend: backend,
		cache:   cache.NewLRU[core.Money](24, 5*time.Minute),
		logger:  logger.WithComponent(log.ComponentBudget),
	}
}

// Get returns the month's budget, zero when none is set.
func (s *Service) Get(ctx context.Context, month core.Month) (core.Money, error) {
	if err := month.Validate(); err != nil {
		return core.Money{}, err
	}
	if v, ok := s.cache.Get(month.String()); ok {
		return v, nil
	}
	v, err := s.backend.GetBudget(ctx, month)
	if err != nil {
		return core.Money{}, fmt.Errorf("get budget for %s: %w", month, err)
	}
	s.cache.Set(month.String(), v)
	return v, nil
}

// Save upserts the month's budget.
func (s *Service) Save(ctx context.Context, month core.Month, amount core.Money) error {
	b := core.Budget{Month: month, Amount: amount}
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.backend.SaveBudget(ctx, month, amount); err != nil {
		return fmt.Errorf("save budget for %s: %w", month, err)
	}
	s.cache.Set(month.String(), amount)
	s.logger.Info("Budget saved",
		log.FieldMonth, month.String(),
		log.FieldAmountCents, amount.Cents)
	return nil
}

// Remaining is the display-time figure budget screens show: the budget minus
// what the month's transactions spent. Never stored.
func Remaining(budget core.Money, txs []core.Transaction) core.Money {
	return core.Money{Cents: budget.Cents - core.Spent(txs).Cents}
}
