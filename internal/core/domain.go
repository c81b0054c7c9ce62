package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

type (
	// TxType classifies a transaction. It is always carried explicitly;
	// category text is a label, never the source of truth for the type.
	TxType string

	Date struct {
		time.Time
	}

	// Money is a signed amount in minor units (cents). Expenses are
	// negative, income is positive. The remote API speaks unsigned
	// decimals; conversion happens at the client boundary.
	Money struct {
		Cents int64
	}

	// Transaction is the client-side record. ID is opaque: server-assigned
	// for persisted rows, "temp-" prefixed for optimistic inserts that have
	// not been confirmed yet.
	Transaction struct {
		ID       string
		Category string
		Amount   Money
		Date     Date
		Type     TxType
	}

	// Budget is the spending limit for one month, a non-negative amount.
	Budget struct {
		Month  Month
		Amount Money
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidDate    = errors.New("invalid date")
	ErrEmptyCategory  = errors.New("empty category")
	ErrInvalidType    = errors.New("invalid transaction type")
	ErrNegativeBudget = errors.New("budget cannot be negative")
)

// incomeCategories are the category names the old clients treated as income
// when a server row carried no explicit type.
var incomeCategories = map[string]struct{}{
	"Salary":  {},
	"Income":  {},
	"Deposit": {},
}

// TypeForCategory maps a server row without type information to a TxType.
// Only used when ingesting wire data; everywhere else Type is explicit.
func TypeForCategory(category string) TxType {
	if _, ok := incomeCategories[strings.TrimSpace(category)]; ok {
		return Income
	}
	return Expense
}

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// Sign applies the canonical sign convention to an unsigned amount.
func (t TxType) Sign(cents int64) Money {
	if cents < 0 {
		cents = -cents
	}
	if t == Expense {
		return Money{Cents: -cents}
	}
	return Money{Cents: cents}
}

const dateLayout = "2006-01-02"

// ParseDate parses an ISO 8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in UTC.
func Today() Date {
	y, m, d := time.Now().UTC().Date()
	return NewDate(y, int(m), d)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MonthOf returns the month the date falls in.
func (d Date) MonthOf() Month {
	return Month{Year: d.Time.Year(), Month: int(d.Time.Month())}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (tx Transaction) Validate() error {
	if err := tx.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(tx.Category)) == 0 {
		return ErrEmptyCategory
	}
	if len(tx.Category) > 100 {
		return errors.New("category too long (max 100 characters)")
	}
	if tx.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	// Sign must agree with the declared type.
	if tx.Type == Expense && tx.Amount.Cents > 0 {
		return fmt.Errorf("%w: expense must be negative", ErrInvalidAmount)
	}
	if tx.Type == Income && tx.Amount.Cents < 0 {
		return fmt.Errorf("%w: income must be positive", ErrInvalidAmount)
	}
	return nil
}

func (b Budget) Validate() error {
	if err := b.Month.Validate(); err != nil {
		return err
	}
	if b.Amount.Cents < 0 {
		return ErrNegativeBudget
	}
	return nil
}
