package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// maxPatternIterations bounds the search for the next matching time. Patterns
// that can never match (day 31 in a month that never has one) return fewer
// results instead of looping forever.
const maxPatternIterations = 527040 // one leap year of minutes

// patternFields holds the five tokens of "minute hour dom month dow".
type patternFields struct {
	minute string
	hour   string
	dom    string
	month  string
	dow    string
}

func parsePattern(pattern string) (patternFields, error) {
	parts := strings.Fields(pattern)
	if len(parts) != 5 {
		return patternFields{}, fmt.Errorf("recurrence pattern must have 5 fields, got %d in %q", len(parts), pattern)
	}
	return patternFields{
		minute: parts[0],
		hour:   parts[1],
		dom:    parts[2],
		month:  parts[3],
		dow:    parts[4],
	}, nil
}

// dayConstrained reports whether the day-of-month or month field restricts
// matching; those patterns are searched at day granularity.
func (f patternFields) dayConstrained() bool {
	return f.dom != "*" || f.month != "*"
}

func (f patternFields) dayMatches(t time.Time) bool {
	return matchField(f.dom, t.Day()) &&
		matchField(f.month, int(t.Month())) &&
		matchField(f.dow, int(t.Weekday()))
}

func (f patternFields) matches(t time.Time) bool {
	return f.dayMatches(t) &&
		matchField(f.hour, t.Hour()) &&
		matchField(f.minute, t.Minute())
}

// ValidatePattern checks a raw 5-field pattern against the numeric grammar
// the matcher implements. Named values ("SUN", "JAN") are rejected even
// though common cron dialects accept them: a pattern that validated but
// could never match would silently disable its template.
func ValidatePattern(pattern string) error {
	fields, err := parsePattern(pattern)
	if err != nil {
		return err
	}

	checks := []struct {
		name     string
		token    string
		min, max int
	}{
		{"minute", fields.minute, 0, 59},
		{"hour", fields.hour, 0, 23},
		{"day-of-month", fields.dom, 1, 31},
		{"month", fields.month, 1, 12},
		{"day-of-week", fields.dow, 0, 6},
	}
	for _, c := range checks {
		if err := validateField(c.token, c.min, c.max); err != nil {
			return fmt.Errorf("invalid recurrence pattern %q: %s field: %w", pattern, c.name, err)
		}
	}
	return nil
}

// validateField mirrors matchField's decomposition: comma list, then step,
// then range, then literal.
func validateField(token string, min, max int) error {
	if token == "*" {
		return nil
	}

	if strings.Contains(token, ",") {
		for _, part := range strings.Split(token, ",") {
			if err := validateField(part, min, max); err != nil {
				return err
			}
		}
		return nil
	}

	if base, stepStr, found := strings.Cut(token, "/"); found {
		step, err := strconv.Atoi(stepStr)
		if err != nil || step <= 0 {
			return fmt.Errorf("step %q must be a positive number", stepStr)
		}
		if base == "*" {
			return nil
		}
		return validateField(base, min, max)
	}

	lo, hi, ok := parseRange(token)
	if !ok {
		return fmt.Errorf("token %q is not numeric", token)
	}
	if lo > hi {
		return fmt.Errorf("range %q is inverted", token)
	}
	if lo < min || hi > max {
		return fmt.Errorf("value %q outside %d-%d", token, min, max)
	}
	return nil
}

// Matches reports whether t satisfies the 5-field pattern. Seconds are
// ignored; matching is minute-granular.
func Matches(pattern string, t time.Time) (bool, error) {
	fields, err := parsePattern(pattern)
	if err != nil {
		return false, err
	}
	return fields.matches(t), nil
}

// NextFromPattern returns up to count times strictly after from that match
// the pattern, in increasing order. The scan advances one minute at a time,
// or one day at a time while a constrained day-of-month/month field rules the
// current day out entirely.
func NextFromPattern(pattern string, from time.Time, count int) ([]time.Time, error) {
	fields, err := parsePattern(pattern)
	if err != nil {
		return nil, err
	}

	results := make([]time.Time, 0, count)
	candidate := from.Truncate(time.Minute).Add(time.Minute)

	for iter := 0; iter < maxPatternIterations && len(results) < count; iter++ {
		if fields.matches(candidate) {
			results = append(results, candidate)
			candidate = candidate.Add(time.Minute)
			continue
		}
		if fields.dayConstrained() && !fields.dayMatches(candidate) {
			// This whole day can never match; jump to the next midnight.
			candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day(),
				0, 0, 0, 0, candidate.Location()).AddDate(0, 0, 1)
			continue
		}
		candidate = candidate.Add(time.Minute)
	}

	return results, nil
}

// matchField tests one time component against one pattern token by recursive
// decomposition: comma list, then step, then range, then literal. "*" matches
// everything; "a-b/n" matches every n-th value starting at a within the range.
func matchField(token string, value int) bool {
	if token == "*" {
		return true
	}

	if strings.Contains(token, ",") {
		for _, part := range strings.Split(token, ",") {
			if matchField(part, value) {
				return true
			}
		}
		return false
	}

	if base, stepStr, found := strings.Cut(token, "/"); found {
		step, err := strconv.Atoi(stepStr)
		if err != nil || step <= 0 {
			return false
		}
		start := 0
		if base != "*" {
			lo, _, ok := parseRange(base)
			if !ok {
				return false
			}
			start = lo
		}
		return matchField(base, value) && (value-start)%step == 0
	}

	if lo, hi, ok := parseRange(token); ok {
		return value >= lo && value <= hi
	}

	literal, err := strconv.Atoi(token)
	if err != nil {
		return false
	}
	return value == literal
}

// parseRange parses "a-b"; a bare literal "a" parses as the range a-a so step
// bases decompose uniformly.
func parseRange(token string) (lo, hi int, ok bool) {
	if a, b, found := strings.Cut(token, "-"); found {
		loVal, err1 := strconv.Atoi(a)
		hiVal, err2 := strconv.Atoi(b)
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return loVal, hiVal, true
	}
	v, err := strconv.Atoi(token)
	if err != nil {
		return 0, 0, false
	}
	return v, v, true
}
