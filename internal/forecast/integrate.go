package forecast

import "time"

// Integrate computes the energy in kWh under the series' power curve within
// the half-open window [start, end).
//
// Convention (the only one used in this codebase): trapezoidal integration
// over segment overlap. Each pair of adjacent samples forms a straight-line
// power segment; the segment is clipped to [start, end), power is linearly
// interpolated at the clip points, and the segment contributes
// mean(power_left, power_right) * clipped_duration. Samples are treated as
// instantaneous readings, never as flat one-hour bins.
//
// With samples {10:00 -> 1000 W, 11:00 -> 2000 W} and window [10:00, 11:00)
// this yields (1000+2000)/2 * 1h = 1.5 kWh.
func Integrate(series Series, start, end time.Time) float64 {
	if !start.Before(end) {
		return 0
	}

	var energyWh float64
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1], series[i]
		if !cur.Time.After(prev.Time) {
			continue
		}

		segStart, segEnd := prev.Time, cur.Time
		if !segEnd.After(start) || !segStart.Before(end) {
			continue
		}

		clipStart, clipEnd := segStart, segEnd
		if clipStart.Before(start) {
			clipStart = start
		}
		if clipEnd.After(end) {
			clipEnd = end
		}

		pLeft := interpolate(prev, cur, clipStart)
		pRight := interpolate(prev, cur, clipEnd)
		hours := clipEnd.Sub(clipStart).Hours()
		energyWh += (pLeft + pRight) / 2 * hours
	}
	return energyWh / 1000
}

// interpolate returns the power on the straight line between a and b at t.
func interpolate(a, b Sample, t time.Time) float64 {
	span := b.Time.Sub(a.Time).Seconds()
	frac := t.Sub(a.Time).Seconds() / span
	return a.Watts + (b.Watts-a.Watts)*frac
}
