package hours

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateWindow_WeekdaySchedule(t *testing.T) {
	raw := "mo-fr 11:00-22:00"

	// Wednesday 19:00 for an hour fits inside 11:00-22:00.
	assert.Equal(t, Open, EvaluateWindow(raw, "we", 19*60, 60))

	// Saturday has no matching segment.
	assert.Equal(t, Closed, EvaluateWindow(raw, "sa", 19*60, 60))

	// Window runs past closing time.
	assert.Equal(t, Closed, EvaluateWindow(raw, "we", 21*60+30, 60))
}

func TestEvaluateWindow_Unknown(t *testing.T) {
	assert.Equal(t, Unknown, EvaluateWindow("", "we", 19*60, 60))
	assert.Equal(t, Unknown, EvaluateWindow("call for hours", "we", 19*60, 60))
}

func TestEvaluateWindow_MultipleSegments(t *testing.T) {
	raw := "mo-fr 11:00-14:00; mo-fr 17:00-22:00; sa,su 12:00-23:00"

	tests := []struct {
		name     string
		day      string
		startMin int
		duration int
		want     Status
	}{
		{"weekday lunch", "tu", 12 * 60, 60, Open},
		{"weekday between services", "tu", 15 * 60, 60, Closed},
		{"weekday dinner", "tu", 19 * 60, 120, Open},
		{"weekend late", "su", 21 * 60, 90, Open},
		{"weekend too late", "su", 22 * 60 + 30, 60, Closed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateWindow(raw, tt.day, tt.startMin, tt.duration))
		})
	}
}

func TestEvaluateWindow_MidnightWraparound(t *testing.T) {
	raw := "fr-sa 18:00-02:00"

	// 23:00 + 2h crosses midnight but stays inside the wrapped interval.
	assert.Equal(t, Open, EvaluateWindow(raw, "fr", 23*60, 120))

	// Starting before opening is still closed.
	assert.Equal(t, Closed, EvaluateWindow(raw, "fr", 17*60, 60))
}

func TestEvaluateWindow_Daily(t *testing.T) {
	raw := "daily 10:00-21:00"
	for _, day := range DayOrder {
		assert.Equal(t, Open, EvaluateWindow(raw, day, 12*60, 60), day)
	}
}

func TestEvaluateWindow_NoDayTokensAppliesEveryDay(t *testing.T) {
	raw := "09:00-17:00"
	assert.Equal(t, Open, EvaluateWindow(raw, "su", 10*60, 60))
	assert.Equal(t, Closed, EvaluateWindow(raw, "su", 18*60, 60))
}

func TestParseDays_WeekWrappingRange(t *testing.T) {
	raw := "sa-mo 12:00-20:00"

	assert.Equal(t, Open, EvaluateWindow(raw, "sa", 13*60, 60))
	assert.Equal(t, Open, EvaluateWindow(raw, "su", 13*60, 60))
	assert.Equal(t, Open, EvaluateWindow(raw, "mo", 13*60, 60))
	assert.Equal(t, Closed, EvaluateWindow(raw, "tu", 13*60, 60))
}

func TestParse_SkipsMalformedSegments(t *testing.T) {
	sched, ok := Parse("garbage; mo 11:00-15:00; also garbage")
	assert.True(t, ok)
	assert.Equal(t, Open, sched.Contains("mo", 12*60, 60))
}

func TestParse_EmptyInput(t *testing.T) {
	_, ok := Parse("")
	assert.False(t, ok)

	_, ok = Parse("; ; ;")
	assert.False(t, ok)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"19:00", 1140, true},
		{"00:00", 0, true},
		{"7:30", 450, true},
		{"25:99", 0, false},
		{"noon", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseClock(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}
