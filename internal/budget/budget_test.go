package budget

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type fakeBackend struct {
	budgets   map[string]core.Money
	getCalls  int
	saveCalls int
	failure   error
}

func (f *fakeBackend) GetBudget(ctx context.Context, month core.Month) (core.Money, error) {
	f.getCalls++
	if f.failure != nil {
		return core.Money{}, f.failure
	}
	return f.budgets[month.String()], nil
}

func (f *fakeBackend) SaveBudget(ctx context.Context, month core.Month, amount core.Money) error {
	f.saveCalls++
	if f.failure != nil {
		return f.failure
	}
	f.budgets[month.String()] = amount
	return nil
}

func newService(backend *fakeBackend) *Service {
	return NewService(backend, log.New(log.DefaultConfig()))
}

var month = core.Month{Year: 2025, Month: 6}

func TestGetCaches(t *testing.T) {
	backend := &fakeBackend{budgets: map[string]core.Money{
		month.String(): {Cents: 100000},
	}}
	s := newService(backend)

	for i := 0; i < 3; i++ {
		got, err := s.Get(context.Background(), month)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Cents != 100000 {
			t.Fatalf("budget = %d", got.Cents)
		}
	}
	if backend.getCalls != 1 {
		t.Fatalf("expected one backend call, got %d", backend.getCalls)
	}
}

func TestGetUnsetMonthIsZero(t *testing.T) {
	backend := &fakeBackend{budgets: map[string]core.Money{}}
	s := newService(backend)

	got, err := s.Get(context.Background(), month)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Cents != 0 {
		t.Fatalf("unset budget = %d, want 0", got.Cents)
	}
}

func TestGetFailurePropagates(t *testing.T) {
	boom := errors.New("boom")
	backend := &fakeBackend{budgets: map[string]core.Money{}, failure: boom}
	s := newService(backend)

	if _, err := s.Get(context.Background(), month); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestSaveUpdatesCache(t *testing.T) {
	backend := &fakeBackend{budgets: map[string]core.Money{}}
	s := newService(backend)

	if err := s.Save(context.Background(), month, core.Money{Cents: 50000}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get(context.Background(), month)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Cents != 50000 {
		t.Fatalf("budget = %d", got.Cents)
	}
	if backend.getCalls != 0 {
		t.Fatalf("save should have primed the cache, got %d reads", backend.getCalls)
	}
}

func TestSaveRejectsNegative(t *testing.T) {
	backend := &fakeBackend{budgets: map[string]core.Money{}}
	s := newService(backend)

	err := s.Save(context.Background(), month, core.Money{Cents: -1})
	if !errors.Is(err, core.ErrNegativeBudget) {
		t.Fatalf("expected ErrNegativeBudget, got %v", err)
	}
	if backend.saveCalls != 0 {
		t.Fatalf("invalid budget must not reach the server")
	}
}

func TestRemaining(t *testing.T) {
	txs := []core.Transaction{
		{Amount: core.Money{Cents: -30000}, Type: core.Expense},
		{Amount: core.Money{Cents: 100000}, Type: core.Income},
		{Amount: core.Money{Cents: -20000}, Type: core.Expense},
	}
	got := Remaining(core.Money{Cents: 80000}, txs)
	// Remaining counts spending only; income does not refill the budget.
	if got.Cents != 30000 {
		t.Fatalf("remaining = %d, want 30000", got.Cents)
	}
}
