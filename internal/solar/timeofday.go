package solar

import (
	"fmt"
	"time"
)

// TimeOfDay is a clock time expressed as minutes since local midnight.
// It deliberately carries no date or zone; DayWindows boundaries are
// re-anchored to a concrete date with At when needed.
type TimeOfDay int

// MinutesPerDay is the wrap modulus for TimeOfDay arithmetic.
const MinutesPerDay = 24 * 60

// TimeOfDayFrom extracts the clock time from t.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// Add shifts the clock time by a number of minutes, wrapping around midnight.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	m := (int(t) + minutes) % MinutesPerDay
	if m < 0 {
		m += MinutesPerDay
	}
	return TimeOfDay(m)
}

// At anchors the clock time onto the calendar day of date, in date's zone.
func (t TimeOfDay) At(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(t)/60, int(t)%60, 0, 0, date.Location())
}

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}
