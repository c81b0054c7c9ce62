package core

import (
	"fmt"
	"time"
)

// Month identifies one calendar month, the unit every listing and budget
// operation is scoped to. Wire format is YYYY-MM.
type Month struct {
	Year  int
	Month int // 1-12
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: int(t.Month())}, nil
}

// CurrentMonth returns the month containing today, in UTC.
func CurrentMonth() Month {
	now := time.Now().UTC()
	return Month{Year: now.Year(), Month: int(now.Month())}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

func (m Month) Validate() error {
	if m.Year < 1 || m.Month < 1 || m.Month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Prev returns the preceding month.
func (m Month) Prev() Month {
	if m.Month == 1 {
		return Month{Year: m.Year - 1, Month: 12}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// Next returns the following month.
func (m Month) Next() Month {
	if m.Month == 12 {
		return Month{Year: m.Year + 1, Month: 1}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Contains reports whether the date falls inside the month.
func (m Month) Contains(d Date) bool {
	return d.Time.Year() == m.Year && int(d.Time.Month()) == m.Month
}
