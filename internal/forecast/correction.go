package forecast

// Monthly multiplicative correction factors compensating for shading and
// seasonal effects at the installation site that the raw forecast model does
// not capture. Indexed by calendar month, January first.
var monthFactors = [12]float64{
	0.70, // January
	0.85, // February
	1.00, // March
	1.10, // April
	1.15, // May
	1.10, // June
	1.05, // July
	1.00, // August
	0.95, // September
	0.85, // October
	0.75, // November
	0.70, // December
}

// FactorForMonth returns the correction factor for a calendar month (1-12).
// An out-of-range month yields the neutral factor 1.0.
func FactorForMonth(month int) float64 {
	if month < 1 || month > 12 {
		return 1.0
	}
	return monthFactors[month-1]
}

// Corrected returns a copy of the series with every power sample multiplied
// by factor. The input series is left untouched.
func Corrected(series Series, factor float64) Series {
	out := make(Series, len(series))
	for i, s := range series {
		out[i] = Sample{Time: s.Time, Watts: s.Watts * factor}
	}
	return out
}
