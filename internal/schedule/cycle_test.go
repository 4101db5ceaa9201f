package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveWeek(t *testing.T) {
	start := date(2024, 1, 1)
	tests := []struct {
		name      string
		elapsed   int
		weekCount int
		want      int
	}{
		{"first day", 0, 3, 1},
		{"last day of week one", 6, 3, 1},
		{"ten days in", 10, 3, 2},
		{"last day of cycle", 20, 3, 3},
		{"wraps after cycle", 25, 3, 1},
		{"single week template", 30, 1, 1},
		{"zero week count treated as one", 15, 0, 1},
		{"before start", -4, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := start.AddDate(0, 0, tt.elapsed)
			assert.Equal(t, tt.want, ResolveWeek(start, current, tt.weekCount))
		})
	}
}

func TestResolveWeek_StableWithinDay(t *testing.T) {
	start := time.Date(2024, 1, 1, 22, 30, 0, 0, time.UTC)
	morning := time.Date(2024, 1, 8, 0, 5, 0, 0, time.UTC)
	night := time.Date(2024, 1, 8, 23, 55, 0, 0, time.UTC)
	assert.Equal(t, 2, ResolveWeek(start, morning, 4))
	assert.Equal(t, ResolveWeek(start, morning, 4), ResolveWeek(start, night, 4))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 9, DaysBetween(date(2024, 1, 1), date(2024, 1, 10)))
	assert.Equal(t, -1, DaysBetween(date(2024, 1, 2), date(2024, 1, 1)))
	// across a leap day
	assert.Equal(t, 2, DaysBetween(date(2024, 2, 28), date(2024, 3, 1)))
}

func TestScheduledDate(t *testing.T) {
	start := date(2024, 1, 1)
	assert.Equal(t, date(2024, 1, 1), ScheduledDate(start, 1, 1, 0, 2))
	assert.Equal(t, date(2024, 1, 10), ScheduledDate(start, 1, 2, 2, 2))
	assert.Equal(t, date(2024, 1, 15), ScheduledDate(start, 2, 1, 0, 2))
	assert.Equal(t, date(2024, 1, 24), ScheduledDate(start, 2, 2, 2, 2))
}

func TestCurrentPeriodAndDayNumber(t *testing.T) {
	start := date(2024, 1, 1)
	assert.Equal(t, 1, CurrentPeriod(start, date(2024, 1, 14), 2))
	assert.Equal(t, 2, CurrentPeriod(start, date(2024, 1, 15), 2))
	assert.Equal(t, 1, CurrentPeriod(start, date(2023, 12, 1), 2))

	assert.Equal(t, 3, DayNumber(start, date(2024, 1, 10)))
	assert.Equal(t, 1, DayNumber(start, date(2024, 1, 15)))
}

func TestProgramEnd(t *testing.T) {
	assert.Equal(t, date(2024, 1, 28), ProgramEnd(date(2024, 1, 1), 2, 2))
	assert.Equal(t, date(2024, 1, 7), ProgramEnd(date(2024, 1, 1), 0, 0))
}

func TestDateOnly_UsesOwnLocation(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"utc", time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC), date(2024, 1, 1)},
		{"positive offset just after midnight", time.Date(2024, 1, 1, 0, 30, 0, 0, time.FixedZone("EET", 2*3600)), date(2024, 1, 1)},
		{"negative offset late evening", time.Date(2024, 1, 1, 22, 0, 0, 0, time.FixedZone("EST", -5*3600)), date(2024, 1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DateOnly(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}
