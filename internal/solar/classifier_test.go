package solar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// wrapWindows describes a winter-like day where the night window spans
// midnight: loading 09:00-14:00, evening 14:00-23:30, night 23:30-06:00.
func wrapWindows() DayWindows {
	return DayWindows{
		Sunrise:      TimeOfDay(7*60 + 30),
		Sunset:       TimeOfDay(15*60 + 30),
		LoadingStart: TimeOfDay(9 * 60),
		LoadingEnd:   TimeOfDay(14 * 60),
		EveningStart: TimeOfDay(14 * 60),
		EveningEnd:   TimeOfDay(23*60 + 30),
		NightStart:   TimeOfDay(23*60 + 30),
		NightEnd:     TimeOfDay(6 * 60),
	}
}

func TestClassify(t *testing.T) {
	w := wrapWindows()

	tests := []struct {
		name string
		now  TimeOfDay
		want Window
	}{
		{"late evening before night", TimeOfDay(23*60 + 29), WindowEvening},
		{"night before midnight", TimeOfDay(23*60 + 45), WindowNight},
		{"night after midnight", TimeOfDay(2 * 60), WindowNight},
		{"midday loading", TimeOfDay(12 * 60), WindowLoading},
		{"morning gap", TimeOfDay(7 * 60), WindowNone},
		{"loading start inclusive", TimeOfDay(9 * 60), WindowLoading},
		{"loading end exclusive becomes evening", TimeOfDay(14 * 60), WindowEvening},
		{"night start inclusive", TimeOfDay(23*60 + 30), WindowNight},
		{"night end exclusive", TimeOfDay(6 * 60), WindowNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.now, w))
		})
	}
}

func TestClassifyNonWrappingNight(t *testing.T) {
	// Calculator-produced windows keep night at 00:00 - sunrise+1h29,
	// which does not wrap; the plain range check must still hold.
	w := DayWindows{
		LoadingStart: TimeOfDay(9 * 60),
		LoadingEnd:   TimeOfDay(14 * 60),
		EveningStart: TimeOfDay(14 * 60),
		EveningEnd:   TimeOfDay(23*60 + 59),
		NightStart:   TimeOfDay(0),
		NightEnd:     TimeOfDay(9 * 60),
	}

	assert.Equal(t, WindowNight, Classify(TimeOfDay(0), w))
	assert.Equal(t, WindowNight, Classify(TimeOfDay(8*60+59), w))
	assert.Equal(t, WindowLoading, Classify(TimeOfDay(9*60), w))
	assert.Equal(t, WindowEvening, Classify(TimeOfDay(23*60+58), w))
	assert.Equal(t, WindowNone, Classify(TimeOfDay(23*60+59), w))
}

func TestCacheReturnsCalculatorResult(t *testing.T) {
	calc := NewCalculator(testLogger())
	cache, err := NewCache(calc, 8)
	assert.NoError(t, err)

	date := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	direct := calc.Windows(51.29, 22.82, date)

	assert.Equal(t, direct, cache.Windows(51.29, 22.82, date))
	// Second read comes from the cache and must be identical.
	assert.Equal(t, direct, cache.Windows(51.29, 22.82, date))
	// A different day is a different entry.
	next := cache.Windows(51.29, 22.82, date.AddDate(0, 1, 0))
	assert.NotEqual(t, direct.Sunrise, next.Sunrise)
}
