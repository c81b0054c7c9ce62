package core

import "testing"

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2025-06")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if m.Year != 2025 || m.Month != 6 {
		t.Fatalf("unexpected month: %+v", m)
	}
	if m.String() != "2025-06" {
		t.Fatalf("round trip mismatch: %s", m)
	}

	for _, bad := range []string{"", "2025", "2025-13", "2025-6", "06-2025"} {
		if _, err := ParseMonth(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestMonthPrevNext(t *testing.T) {
	cases := []struct {
		in   Month
		prev Month
		next Month
	}{
		{Month{2025, 6}, Month{2025, 5}, Month{2025, 7}},
		{Month{2025, 1}, Month{2024, 12}, Month{2025, 2}},
		{Month{2025, 12}, Month{2025, 11}, Month{2026, 1}},
	}
	for _, tc := range cases {
		if got := tc.in.Prev(); got != tc.prev {
			t.Fatalf("%s.Prev() = %s, want %s", tc.in, got, tc.prev)
		}
		if got := tc.in.Next(); got != tc.next {
			t.Fatalf("%s.Next() = %s, want %s", tc.in, got, tc.next)
		}
	}
}

func TestMonthContains(t *testing.T) {
	m := Month{Year: 2025, Month: 6}
	if !m.Contains(NewDate(2025, 6, 30)) {
		t.Fatalf("expected contains")
	}
	if m.Contains(NewDate(2025, 7, 1)) {
		t.Fatalf("expected not contains")
	}
}
