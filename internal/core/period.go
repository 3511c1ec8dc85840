package core

import (
	"fmt"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// DateRange is an inclusive [Start, End] reporting window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange returns an error if end is before start.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, fmt.Errorf("%w: start and end are required", ErrInvalidDateRange)
	}
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("%w: end %s is before start %s", ErrInvalidDateRange,
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return DateRange{Start: start, End: end}, nil
}

// DayRange covers whole calendar days: from 00:00:00 on the first day to
// 23:59:59 on the last day. The dates are read in the location of each
// argument and the range is always built in UTC, so a period has one key
// whichever zone computed it.
func DayRange(first, last time.Time) (DateRange, error) {
	start := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, 0, time.UTC)
	return NewDateRange(start, end)
}

// ParseDayRange parses two YYYY-MM-DD dates into a DayRange in UTC.
func ParseDayRange(first, last string) (DateRange, error) {
	s, err := time.Parse(dayLayout, strings.TrimSpace(first))
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start date %q: %v", ErrInvalidDateRange, first, err)
	}
	e, err := time.Parse(dayLayout, strings.TrimSpace(last))
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end date %q: %v", ErrInvalidDateRange, last, err)
	}
	return DayRange(s, e)
}

// Contains reports whether t lies within the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Month returns the month (1-12) of the range start.
func (r DateRange) Month() int {
	return int(r.Start.Month())
}

// Year returns the year of the range start.
func (r DateRange) Year() int {
	return r.Start.Year()
}

// Key is a stable identifier for the range, used for caching and sheet names.
func (r DateRange) Key() string {
	return r.Start.Format(dayLayout) + ".." + r.End.Format(dayLayout)
}

func (r DateRange) String() string {
	return r.Start.Format(time.RFC3339) + "/" + r.End.Format(time.RFC3339)
}
