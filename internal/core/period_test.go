package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDayRange(t *testing.T) {
	r, err := ParseDayRange("2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)
	if !r.Start.Equal(wantStart) || !r.End.Equal(wantEnd) {
		t.Fatalf("got %s", r)
	}
	if r.Month() != 3 || r.Year() != 2024 {
		t.Fatalf("month/year = %d/%d", r.Month(), r.Year())
	}
	if r.Key() != "2024-03-01..2024-03-31" {
		t.Fatalf("key = %q", r.Key())
	}
}

func TestDayRangeUsesCalendarDatesInUTC(t *testing.T) {
	eat := time.FixedZone("EAT", 3*60*60)

	// 01:30 EAT on 1 March is still 29 February in UTC.
	r, err := DayRange(time.Date(2024, 3, 1, 1, 30, 0, 0, eat), time.Date(2024, 3, 31, 22, 0, 0, 0, eat))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := ParseDayRange("2024-03-01", "2024-03-31")
	if r != want {
		t.Fatalf("DayRange = %s, want %s", r, want)
	}
	if r.Start.Location() != time.UTC {
		t.Fatalf("location = %v, want UTC", r.Start.Location())
	}
}

func TestParseDayRangeErrors(t *testing.T) {
	cases := [][2]string{
		{"2024-03-31", "2024-03-01"},
		{"bad", "2024-03-01"},
		{"2024-03-01", ""},
	}
	for i, c := range cases {
		if _, err := ParseDayRange(c[0], c[1]); !errors.Is(err, ErrInvalidDateRange) {
			t.Fatalf("case %d expected ErrInvalidDateRange, got %v", i, err)
		}
	}
}

func TestDateRangeContainsIsInclusive(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	r, err := NewDateRange(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cases := []struct {
		t  time.Time
		in bool
	}{
		{start, true},
		{end, true},
		{start.Add(-time.Nanosecond), false},
		{end.Add(time.Second), false},
		{time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), true},
	}
	for i, c := range cases {
		if got := r.Contains(c.t); got != c.in {
			t.Fatalf("case %d: Contains(%s) = %v", i, c.t, got)
		}
	}
}

func TestNewDateRangeSameInstant(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if _, err := NewDateRange(at, at); err != nil {
		t.Fatalf("single instant range should be valid: %v", err)
	}
}
