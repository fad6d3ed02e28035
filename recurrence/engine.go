// Package recurrence computes execution times for recurring maintenance
// definitions. Two forms are supported: a structured interval config and a
// raw 5-field cron pattern. A raw pattern always takes precedence over the
// structured fields.
package recurrence

import (
	"fmt"
	"time"
)

// Unit is the structured recurrence interval unit.
type Unit string

const (
	UnitHours  Unit = "hours"
	UnitDays   Unit = "days"
	UnitWeeks  Unit = "weeks"
	UnitMonths Unit = "months"
	UnitYears  Unit = "years"
)

// Config is the structured recurrence definition carried in a maintenance
// window's details.
type Config struct {
	Enabled       bool   `json:"enabled"`
	Interval      int    `json:"interval"`
	Unit          Unit   `json:"unit"`
	Hour          int    `json:"hour"`
	Minute        int    `json:"minute"`
	DayOfWeek     *int   `json:"day_of_week,omitempty"`   // 0 = Sunday
	DayOfMonth    *int   `json:"day_of_month,omitempty"`  // clamped to month length
	WeekOfMonth   *int   `json:"week_of_month,omitempty"` // informational, used by Describe
	CustomPattern string `json:"custom_pattern,omitempty"`
}

// Validate checks the config for obvious misconfiguration. Raw patterns are
// checked against the exact grammar the matcher implements, so anything
// accepted at write time is guaranteed to be matchable by the scheduler.
func (c *Config) Validate() error {
	if c.CustomPattern != "" {
		return ValidatePattern(c.CustomPattern)
	}
	if c.Interval < 1 {
		return fmt.Errorf("recurrence interval must be >= 1, got %d", c.Interval)
	}
	switch c.Unit {
	case UnitHours, UnitDays, UnitWeeks, UnitMonths, UnitYears:
	default:
		return fmt.Errorf("unsupported recurrence unit: %q", c.Unit)
	}
	if c.Hour < 0 || c.Hour > 23 {
		return fmt.Errorf("recurrence hour out of range: %d", c.Hour)
	}
	if c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("recurrence minute out of range: %d", c.Minute)
	}
	return nil
}

// NextFromConfig returns up to count execution times strictly after from,
// in increasing order. Each computed time feeds the next advance, so the
// series stays aligned to the configured interval.
func NextFromConfig(cfg Config, from time.Time, count int) ([]time.Time, error) {
	if cfg.CustomPattern != "" {
		return NextFromPattern(cfg.CustomPattern, from, count)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	results := make([]time.Time, 0, count)
	current := from
	for i := 0; i < count; i++ {
		next, err := advance(cfg, current)
		if err != nil {
			return nil, err
		}
		results = append(results, next)
		current = next
	}
	return results, nil
}

func advance(cfg Config, from time.Time) (time.Time, error) {
	switch cfg.Unit {
	case UnitHours:
		next := from.Add(time.Duration(cfg.Interval) * time.Hour)
		return time.Date(next.Year(), next.Month(), next.Day(), next.Hour(), cfg.Minute, 0, 0, next.Location()), nil

	case UnitDays:
		next := from.AddDate(0, 0, cfg.Interval)
		return pinClock(next, cfg), nil

	case UnitWeeks:
		next := from.AddDate(0, 0, cfg.Interval*7)
		if cfg.DayOfWeek != nil {
			// Forward to the configured weekday; zero days if already on it.
			offset := (*cfg.DayOfWeek - int(next.Weekday()) + 7) % 7
			next = next.AddDate(0, 0, offset)
		}
		return pinClock(next, cfg), nil

	case UnitMonths:
		return advanceMonths(cfg, from, cfg.Interval, 0), nil

	case UnitYears:
		return advanceMonths(cfg, from, 0, cfg.Interval), nil
	}
	return time.Time{}, fmt.Errorf("unsupported recurrence unit: %q", cfg.Unit)
}

// advanceMonths adds months/years and clamps the target day-of-month to the
// last valid day of the resulting month, so Jan 31 + 1 month lands on the
// final day of February instead of overflowing into March.
func advanceMonths(cfg Config, from time.Time, months, years int) time.Time {
	year := from.Year() + years
	month := int(from.Month()) + months
	// Normalize month overflow the way time.Date would, but before clamping.
	year += (month - 1) / 12
	month = (month-1)%12 + 1

	day := from.Day()
	if cfg.DayOfMonth != nil {
		day = *cfg.DayOfMonth
	}
	if last := daysInMonth(year, time.Month(month)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, cfg.Hour, cfg.Minute, 0, 0, from.Location())
}

func pinClock(t time.Time, cfg Config) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), cfg.Hour, cfg.Minute, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
