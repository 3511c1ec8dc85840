package services

import (
	"fmt"
	"strings"
	"time"

	"centrefunds/internal/core"
)

// PeriodStrategy computes the most recent closing period that has fully
// elapsed at a given instant. Each schedule has its own implementation.
type PeriodStrategy interface {
	LastComplete(now time.Time) (core.DateRange, error)
}

// DailyPeriod closes yesterday.
type DailyPeriod struct{}

func (DailyPeriod) LastComplete(now time.Time) (core.DateRange, error) {
	yesterday := startOfDay(now).AddDate(0, 0, -1)
	return core.DayRange(yesterday, yesterday)
}

// WeeklyPeriod closes the last full Monday to Sunday week.
type WeeklyPeriod struct{}

func (WeeklyPeriod) LastComplete(now time.Time) (core.DateRange, error) {
	today := startOfDay(now)
	// days since Monday, with Sunday counted as 6
	offset := (int(today.Weekday()) + 6) % 7
	thisMonday := today.AddDate(0, 0, -offset)
	lastMonday := thisMonday.AddDate(0, 0, -7)
	return core.DayRange(lastMonday, thisMonday.AddDate(0, 0, -1))
}

// MonthlyPeriod closes the previous calendar month.
type MonthlyPeriod struct{}

func (MonthlyPeriod) LastComplete(now time.Time) (core.DateRange, error) {
	firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	firstOfLastMonth := firstOfThisMonth.AddDate(0, -1, 0)
	return core.DayRange(firstOfLastMonth, firstOfThisMonth.AddDate(0, 0, -1))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// periodStrategies maps CLOSE_SCHEDULE values to strategies.
var periodStrategies = map[string]PeriodStrategy{
	"daily":   DailyPeriod{},
	"weekly":  WeeklyPeriod{},
	"monthly": MonthlyPeriod{},
}

// GetPeriodStrategy returns the strategy for a schedule name.
func GetPeriodStrategy(schedule string) (PeriodStrategy, error) {
	strategy, ok := periodStrategies[strings.ToLower(strings.TrimSpace(schedule))]
	if !ok {
		return nil, fmt.Errorf("unknown close schedule: %s", schedule)
	}
	return strategy, nil
}

// RegisterPeriodStrategy adds or replaces a schedule.
func RegisterPeriodStrategy(schedule string, strategy PeriodStrategy) {
	periodStrategies[strings.ToLower(schedule)] = strategy
}
