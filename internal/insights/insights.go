// Package insights surfaces the server-side analytics: spend prediction,
// anomaly flags, the 30-day forecast, budget recommendation and the savings
// ledger. The client computes none of this; it fetches, caches briefly and
// renders.
package insights

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/api"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Backend is the slice of the API client the service needs.
type Backend interface {
	Predict(ctx context.Context) (core.Money, error)
	RecommendBudget(ctx context.Context) (core.Money, error)
	Anomalies(ctx context.Context) ([]string, error)
	Forecast(ctx context.Context) ([]api.ForecastPoint, error)
	Savings(ctx context.Context) (api.SavingsReport, error)
	Chat(ctx context.Context, message string) (string, error)
	OptimizeBudget(ctx context.Context, month core.Month) ([]api.BudgetAdvice, error)
	CategoryEfficiency(ctx context.Context, month core.Month) ([]api.CategoryEfficiency, error)
}

// Overview bundles the dashboard figures fetched in one fan-out.
type Overview struct {
	Prediction        core.Money
	RecommendedBudget core.Money
	Anomalies         []string
	Forecast          []api.ForecastPoint
	Savings           api.SavingsReport
}

// Flagged reports whether the transaction id was marked anomalous.
func (o Overview) Flagged(id string) bool {
	for _, a := range o.Anomalies {
		if a == id {
			return true
		}
	}
	return false
}

const overviewKey = "overview"

// Service fetches analytics from the backend.
type Service struct {
	backend Backend
	cache   *cache.LRU[Overview]
	logger  *log.Logger
}

func NewService(backend Backend, logger *log.Logger) *Service {
	return &Service{
		backend: backend,
		cache:   cache.NewLRU[Overview](4, time.Minute),
		logger:  logger.WithComponent(log.ComponentInsights),
	}
}

// Overview fetches all dashboard analytics concurrently. One failing
// endpoint fails the whole overview; the figures travel together or not at
// all, so the dashboard never mixes fresh and stale numbers.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	if cached, ok := s.cache.Get(overviewKey); ok {
		return cached, nil
	}

	var o Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := s.backend.Predict(gctx)
		o.Prediction = v
		return err
	})
	g.Go(func() error {
		v, err := s.backend.RecommendBudget(gctx)
		o.RecommendedBudget = v
		return err
	})
	g.Go(func() error {
		v, err := s.backend.Anomalies(gctx)
		o.Anomalies = v
		return err
	})
	g.Go(func() error {
		v, err := s.backend.Forecast(gctx)
		o.Forecast = v
		return err
	})
	g.Go(func() error {
		v, err := s.backend.Savings(gctx)
		o.Savings = v
		return err
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	s.cache.Set(overviewKey, o)
	s.logger.Debug("Overview refreshed",
		log.FieldRowCount, len(o.Forecast))
	return o, nil
}

// Invalidate drops the cached overview. Mutations call this so the next
// dashboard render re-fetches.
func (s *Service) Invalidate() {
	s.cache.Delete(overviewKey)
}

// Chat forwards a message to the financial coach.
func (s *Service) Chat(ctx context.Context, message string) (string, error) {
	return s.backend.Chat(ctx, message)
}

// Advice returns category-level overspend hints for the month.
func (s *Service) Advice(ctx context.Context, month core.Month) ([]api.BudgetAdvice, error) {
	if err := month.Validate(); err != nil {
		return nil, err
	}
	return s.backend.OptimizeBudget(ctx, month)
}

// Efficiency returns the per-category efficiency ratings for the month.
func (s *Service) Efficiency(ctx context.Context, month core.Month) ([]api.CategoryEfficiency, error) {
	if err := month.Validate(); err != nil {
		return nil, err
	}
	return s.backend.CategoryEfficiency(ctx, month)
}
