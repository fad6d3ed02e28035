package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestNextFromConfigDaily(t *testing.T) {
	cfg := Config{Enabled: true, Interval: 1, Unit: UnitDays, Hour: 2, Minute: 30}
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	next, err := NextFromConfig(cfg, from, 3)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		time.Date(2024, 1, 2, 2, 30, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 2, 30, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 2, 30, 0, 0, time.UTC),
	}, next)
}

func TestNextFromConfigHourlyPinsMinute(t *testing.T) {
	cfg := Config{Enabled: true, Interval: 6, Unit: UnitHours, Minute: 15}
	from := time.Date(2024, 3, 1, 10, 42, 17, 0, time.UTC)

	next, err := NextFromConfig(cfg, from, 2)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 1, 16, 15, 0, 0, time.UTC), next[0])
	assert.Equal(t, time.Date(2024, 3, 1, 22, 15, 0, 0, time.UTC), next[1])
}

func TestNextFromConfigWeeklyAdjustsToWeekday(t *testing.T) {
	// 2024-01-01 is a Monday; schedule on Wednesdays.
	cfg := Config{Enabled: true, Interval: 1, Unit: UnitWeeks, Hour: 4, Minute: 0, DayOfWeek: intPtr(3)}
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	next, err := NextFromConfig(cfg, from, 2)
	require.NoError(t, err)

	assert.Equal(t, time.Weekday(3), next[0].Weekday())
	assert.Equal(t, time.Date(2024, 1, 10, 4, 0, 0, 0, time.UTC), next[0])
	assert.Equal(t, time.Weekday(3), next[1].Weekday())
}

func TestNextFromConfigMonthClamping(t *testing.T) {
	cfg := Config{Enabled: true, Interval: 1, Unit: UnitMonths, Hour: 1, Minute: 0, DayOfMonth: intPtr(31)}
	from := time.Date(2024, 1, 31, 1, 0, 0, 0, time.UTC)

	next, err := NextFromConfig(cfg, from, 3)
	require.NoError(t, err)

	// 2024 is a leap year: Feb clamps to 29, never overflows into March.
	assert.Equal(t, time.Date(2024, 2, 29, 1, 0, 0, 0, time.UTC), next[0])
	assert.Equal(t, time.Date(2024, 3, 31, 1, 0, 0, 0, time.UTC), next[1])
	assert.Equal(t, time.Date(2024, 4, 30, 1, 0, 0, 0, time.UTC), next[2])
}

func TestNextFromConfigYearlyLeapClamp(t *testing.T) {
	cfg := Config{Enabled: true, Interval: 1, Unit: UnitYears, Hour: 0, Minute: 0, DayOfMonth: intPtr(29)}
	from := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	next, err := NextFromConfig(cfg, from, 1)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), next[0])
}

func TestNextFromConfigCustomPatternWins(t *testing.T) {
	cfg := Config{
		Enabled:       true,
		Interval:      1,
		Unit:          UnitDays,
		Hour:          2,
		Minute:        30,
		CustomPattern: "0 12 * * *", // structured fields say 02:30, pattern says noon
	}
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	next, err := NextFromConfig(cfg, from, 1)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), next[0])
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, (&Config{Interval: 0, Unit: UnitDays}).Validate())
	assert.Error(t, (&Config{Interval: 1, Unit: Unit("fortnights")}).Validate())
	assert.Error(t, (&Config{Interval: 1, Unit: UnitDays, Hour: 25}).Validate())
	assert.NoError(t, (&Config{Interval: 2, Unit: UnitWeeks, Hour: 3, Minute: 30}).Validate())
	assert.Error(t, (&Config{CustomPattern: "not a pattern"}).Validate())
	assert.NoError(t, (&Config{CustomPattern: "*/5 * * * *"}).Validate())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Every day at 02:30",
		Describe(Config{Enabled: true, Interval: 1, Unit: UnitDays, Hour: 2, Minute: 30}))
	assert.Equal(t, "Every 3 days at 14:00",
		Describe(Config{Enabled: true, Interval: 3, Unit: UnitDays, Hour: 14}))
	assert.Equal(t, "Every week on Wednesday at 04:00",
		Describe(Config{Enabled: true, Interval: 1, Unit: UnitWeeks, Hour: 4, DayOfWeek: intPtr(3)}))
	assert.Equal(t, "Every month on the 31st at 01:00",
		Describe(Config{Enabled: true, Interval: 1, Unit: UnitMonths, Hour: 1, DayOfMonth: intPtr(31)}))
	assert.Equal(t, "Every month on the 2nd at 01:00",
		Describe(Config{Enabled: true, Interval: 1, Unit: UnitMonths, Hour: 1, DayOfMonth: intPtr(2)}))
	assert.Equal(t, `On cron schedule "0 2 * * 0"`,
		Describe(Config{CustomPattern: "0 2 * * 0"}))
}
