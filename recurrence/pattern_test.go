package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMatch(t *testing.T, pattern string, at time.Time) bool {
	t.Helper()
	ok, err := Matches(pattern, at)
	require.NoError(t, err)
	return ok
}

func TestMatchesBusinessHoursPattern(t *testing.T) {
	pattern := "*/15 9-17 * * 1-5"

	wednesday := time.Date(2024, 1, 3, 9, 15, 0, 0, time.UTC) // a Wednesday
	saturday := time.Date(2024, 1, 6, 9, 15, 0, 0, time.UTC)

	assert.True(t, mustMatch(t, pattern, wednesday))
	assert.False(t, mustMatch(t, pattern, wednesday.Add(5*time.Minute))) // 09:20
	assert.False(t, mustMatch(t, pattern, saturday))
}

func TestMatchesTokenForms(t *testing.T) {
	base := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC) // Monday 08:00, June 10th

	assert.True(t, mustMatch(t, "* * * * *", base))
	assert.True(t, mustMatch(t, "0 8 10 6 1", base))
	assert.True(t, mustMatch(t, "0,30 * * * *", base))
	assert.False(t, mustMatch(t, "15,45 * * * *", base))
	assert.True(t, mustMatch(t, "* * 1-15 * *", base))
	assert.True(t, mustMatch(t, "* 8-17/3 * * *", base)) // 8, 11, 14, 17
	assert.False(t, mustMatch(t, "* 9-17/3 * * *", base))
}

func TestMatchesRejectsMalformedPattern(t *testing.T) {
	_, err := Matches("* * *", time.Now())
	assert.Error(t, err)
}

func TestNextFromPatternHourly(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 10, 0, 0, time.UTC)

	next, err := NextFromPattern("30 * * * *", from, 3)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 1, 30, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 2, 30, 0, 0, time.UTC),
	}, next)
}

func TestNextFromPatternStrictlyAfterFrom(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC)

	next, err := NextFromPattern("30 * * * *", from, 1)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 1, 30, 0, 0, time.UTC), next[0])
}

func TestNextFromPatternDayConstrainedSkipsByDay(t *testing.T) {
	// First of month at 03:00, starting mid-January.
	from := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	next, err := NextFromPattern("0 3 1 * *", from, 2)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 2, 1, 3, 0, 0, 0, time.UTC), next[0])
	assert.Equal(t, time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC), next[1])
}

func TestNextFromPatternImpossibleTerminates(t *testing.T) {
	// Day 31 of February never exists; the search must give up, not spin.
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	next, err := NextFromPattern("0 0 31 2 *", from, 1)
	require.NoError(t, err)
	assert.Empty(t, next)
}

func TestValidatePatternAcceptsMatcherGrammar(t *testing.T) {
	require.NoError(t, ValidatePattern("*/15 9-17 * * 1-5"))
	require.NoError(t, ValidatePattern("0 3 1,15 * *"))
	require.NoError(t, ValidatePattern("0-30/5 * * * *"))
}

func TestValidatePatternRejectsUnmatchableTokens(t *testing.T) {
	// Named values are valid in common cron dialects but the matcher is
	// numeric-only; accepting them here would produce a pattern that never
	// fires.
	assert.Error(t, ValidatePattern("0 3 * * SUN"))
	assert.Error(t, ValidatePattern("0 3 * JAN *"))

	// Out-of-bounds values can likewise never match a real clock reading.
	assert.Error(t, ValidatePattern("0 24 * * *"))
	assert.Error(t, ValidatePattern("60 * * * *"))
	assert.Error(t, ValidatePattern("0 3 * * 7"))
	assert.Error(t, ValidatePattern("0 3 0 * *"))

	assert.Error(t, ValidatePattern("30-10 * * * *"))
	assert.Error(t, ValidatePattern("*/0 * * * *"))
	assert.Error(t, ValidatePattern("* * * *"))
}
