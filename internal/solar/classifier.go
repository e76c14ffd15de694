package solar

// Window labels a named interval of the day.
type Window string

const (
	WindowLoading Window = "loading"
	WindowEvening Window = "evening"
	WindowNight   Window = "night"
	WindowNone    Window = ""
)

// Classify returns the window that contains now, or WindowNone.
//
// Every window is start-inclusive and end-exclusive. Windows are checked in
// the order evening, night, loading so that a boundary minute shared by two
// ranges always classifies the same way. The night check handles the
// midnight wrap: when NightEnd < NightStart the window spans midnight and
// now matches if it falls on either side of it.
//
// Classify is pure and safe to call from any goroutine.
func Classify(now TimeOfDay, w DayWindows) Window {
	switch {
	case w.EveningStart <= now && now < w.EveningEnd:
		return WindowEvening
	case inNight(now, w.NightStart, w.NightEnd):
		return WindowNight
	case w.LoadingStart <= now && now < w.LoadingEnd:
		return WindowLoading
	default:
		return WindowNone
	}
}

func inNight(now, start, end TimeOfDay) bool {
	if end < start {
		// Spans midnight.
		return now >= start || now < end
	}
	return start <= now && now < end
}
