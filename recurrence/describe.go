package recurrence

import (
	"fmt"
	"time"
)

// Describe renders a config as a short human-readable schedule description
// for display. It never fails; unrecognized configs degrade to a generic
// string rather than erroring in a UI path.
func Describe(cfg Config) string {
	if cfg.CustomPattern != "" {
		return fmt.Sprintf("On cron schedule %q", cfg.CustomPattern)
	}
	if !cfg.Enabled {
		return "One-time (no recurrence)"
	}

	clock := fmt.Sprintf("%02d:%02d", cfg.Hour, cfg.Minute)

	switch cfg.Unit {
	case UnitHours:
		if cfg.Interval == 1 {
			return fmt.Sprintf("Every hour at minute %d", cfg.Minute)
		}
		return fmt.Sprintf("Every %d hours at minute %d", cfg.Interval, cfg.Minute)

	case UnitDays:
		if cfg.Interval == 1 {
			return fmt.Sprintf("Every day at %s", clock)
		}
		return fmt.Sprintf("Every %d days at %s", cfg.Interval, clock)

	case UnitWeeks:
		day := ""
		if cfg.DayOfWeek != nil {
			day = fmt.Sprintf(" on %s", time.Weekday(*cfg.DayOfWeek%7).String())
		}
		if cfg.Interval == 1 {
			return fmt.Sprintf("Every week%s at %s", day, clock)
		}
		return fmt.Sprintf("Every %d weeks%s at %s", cfg.Interval, day, clock)

	case UnitMonths:
		day := ""
		if cfg.DayOfMonth != nil {
			day = fmt.Sprintf(" on the %s", ordinal(*cfg.DayOfMonth))
		} else if cfg.WeekOfMonth != nil && cfg.DayOfWeek != nil {
			day = fmt.Sprintf(" on the %s %s", ordinal(*cfg.WeekOfMonth), time.Weekday(*cfg.DayOfWeek%7).String())
		}
		if cfg.Interval == 1 {
			return fmt.Sprintf("Every month%s at %s", day, clock)
		}
		return fmt.Sprintf("Every %d months%s at %s", cfg.Interval, day, clock)

	case UnitYears:
		if cfg.Interval == 1 {
			return fmt.Sprintf("Every year at %s", clock)
		}
		return fmt.Sprintf("Every %d years at %s", cfg.Interval, clock)
	}

	return fmt.Sprintf("Every %d %s", cfg.Interval, cfg.Unit)
}

// ordinal renders 1 -> "1st", 2 -> "2nd", 11 -> "11th".
func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
		// 11th, 12th, 13th
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
