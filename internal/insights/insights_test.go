package insights

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

type fakeBackend struct {
	prediction  core.Money
	recommended core.Money
	anomalies   []string
	forecast    []api.ForecastPoint
	savings     api.SavingsReport

	predictErr error
	savingsErr error

	calls atomic.Int64
}

func (f *fakeBackend) Predict(ctx context.Context) (core.Money, error) {
	f.calls.Add(1)
	return f.prediction, f.predictErr
}

func (f *fakeBackend) RecommendBudget(ctx context.Context) (core.Money, error) {
	f.calls.Add(1)
	return f.recommended, nil
}

func (f *fakeBackend) Anomalies(ctx context.Context) ([]string, error) {
	f.calls.Add(1)
	return f.anomalies, nil
}

func (f *fakeBackend) Forecast(ctx context.Context) ([]api.ForecastPoint, error) {
	f.calls.Add(1)
	return f.forecast, nil
}

func (f *fakeBackend) Savings(ctx context.Context) (api.SavingsReport, error) {
	f.calls.Add(1)
	return f.savings, f.savingsErr
}

func (f *fakeBackend) Chat(ctx context.Context, message string) (string, error) {
	return "coach: " + message, nil
}

func (f *fakeBackend) OptimizeBudget(ctx context.Context, month core.Month) ([]api.BudgetAdvice, error) {
	return []api.BudgetAdvice{{Category: "Food", Message: "scale back"}}, nil
}

func (f *fakeBackend) CategoryEfficiency(ctx context.Context, month core.Month) ([]api.CategoryEfficiency, error) {
	return []api.CategoryEfficiency{{Category: "Rent", Efficiency: "Fixed"}}, nil
}

func newService(backend *fakeBackend) *Service {
	return NewService(backend, log.New(log.DefaultConfig()))
}

func TestOverviewFanOut(t *testing.T) {
	backend := &fakeBackend{
		prediction:  core.Money{Cents: 123456},
		recommended: core.Money{Cents: 90000},
		anomalies:   []string{"3", "17"},
		forecast: []api.ForecastPoint{
			{Date: core.NewDate(2025, 7, 1), Amount: core.Money{Cents: 4250}},
		},
		savings: api.SavingsReport{Total: core.Money{Cents: 15000}},
	}
	s := newService(backend)

	o, err := s.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if o.Prediction.Cents != 123456 {
		t.Fatalf("prediction = %d", o.Prediction.Cents)
	}
	if o.RecommendedBudget.Cents != 90000 {
		t.Fatalf("recommended = %d", o.RecommendedBudget.Cents)
	}
	if len(o.Forecast) != 1 || o.Savings.Total.Cents != 15000 {
		t.Fatalf("overview = %+v", o)
	}
	if !o.Flagged("17") || o.Flagged("99") {
		t.Fatalf("anomaly flags wrong: %+v", o.Anomalies)
	}
	if backend.calls.Load() != 5 {
		t.Fatalf("expected 5 backend calls, got %d", backend.calls.Load())
	}
}

func TestOverviewCached(t *testing.T) {
	backend := &fakeBackend{}
	s := newService(backend)

	if _, err := s.Overview(context.Background()); err != nil {
		t.Fatalf("overview: %v", err)
	}
	if _, err := s.Overview(context.Background()); err != nil {
		t.Fatalf("overview: %v", err)
	}
	if backend.calls.Load() != 5 {
		t.Fatalf("second overview should be served from cache, got %d calls", backend.calls.Load())
	}

	s.Invalidate()
	if _, err := s.Overview(context.Background()); err != nil {
		t.Fatalf("overview: %v", err)
	}
	if backend.calls.Load() != 10 {
		t.Fatalf("invalidate should force a re-fetch, got %d calls", backend.calls.Load())
	}
}

func TestOverviewFailsWhole(t *testing.T) {
	boom := errors.New("boom")
	backend := &fakeBackend{savingsErr: boom}
	s := newService(backend)

	if _, err := s.Overview(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	// A failed fan-out must not poison the cache.
	backend.savingsErr = nil
	o, err := s.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview after recovery: %v", err)
	}
	_ = o
}

func TestChatPassthrough(t *testing.T) {
	s := newService(&fakeBackend{})
	reply, err := s.Chat(context.Background(), "hello")
	if err != nil || reply != "coach: hello" {
		t.Fatalf("chat = %q, %v", reply, err)
	}
}

func TestAdviceAndEfficiency(t *testing.T) {
	s := newService(&fakeBackend{})
	month := core.Month{Year: 2025, Month: 6}

	advice, err := s.Advice(context.Background(), month)
	if err != nil || len(advice) != 1 {
		t.Fatalf("advice = %+v, %v", advice, err)
	}
	eff, err := s.Efficiency(context.Background(), month)
	if err != nil || len(eff) != 1 {
		t.Fatalf("efficiency = %+v, %v", eff, err)
	}

	if _, err := s.Advice(context.Background(), core.Month{}); err == nil {
		t.Fatalf("expected month validation error")
	}
}
