package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeDisabled(t *testing.T) {
	assert.Equal(t, "One-time (no recurrence)", Describe(Config{}))
}

func TestDescribeHourly(t *testing.T) {
	cfg := Config{Enabled: true, Interval: 1, Unit: UnitHours, Minute: 15}
	assert.Equal(t, "Every hour at minute 15", Describe(cfg))

	cfg.Interval = 6
	assert.Equal(t, "Every 6 hours at minute 15", Describe(cfg))
}

func TestDescribePluralWeeks(t *testing.T) {
	cfg := Config{Enabled: true, Interval: 2, Unit: UnitWeeks, Hour: 22, Minute: 0, DayOfWeek: intPtr(3)}
	assert.Equal(t, "Every 2 weeks on Wednesday at 22:00", Describe(cfg))
}

func TestDescribeTeenOrdinal(t *testing.T) {
	cfg := Config{Enabled: true, Interval: 1, Unit: UnitMonths, Hour: 1, Minute: 0, DayOfMonth: intPtr(11)}
	assert.Equal(t, "Every month on the 11th at 01:00", Describe(cfg))
}

func TestDescribeMonthlyNthWeekday(t *testing.T) {
	cfg := Config{
		Enabled:  true,
		Interval: 1,
		Unit:     UnitMonths,
		Hour:     4, Minute: 30,
		WeekOfMonth: intPtr(2),
		DayOfWeek:   intPtr(6),
	}
	assert.Equal(t, "Every month on the 2nd Saturday at 04:30", Describe(cfg))
}
