// Package solar computes the daily operating windows of the installation from
// sunrise and sunset, and classifies a clock time into one of them.
//
// The three windows are:
//   - loading: sunrise+1h30 until sunset-1h29, the PV charging period
//   - evening: sunset-1h30 until 23:59
//   - night:   00:00 until sunrise+1h29
//
// Sunrise and sunset come from the standard NOAA trigonometric approximation
// (equation of time + solar declination + hour angle at zenith 90.833 deg),
// which is accurate to within a few minutes at mid latitudes.
package solar

import (
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Fixed offsets deriving the window boundaries from sunrise/sunset. The end
// boundaries sit one minute inside the adjacent window start so consecutive
// windows never share a minute.
const (
	loadingStartOffset = 90  // minutes after sunrise
	loadingEndOffset   = -89 // minutes before sunset
	eveningStartOffset = -90 // minutes before sunset
	nightEndOffset     = 89  // minutes after sunrise
)

// Fallback sunrise/sunset used when the calculation fails. December values for
// the default installation site, so a broken configuration degrades to the
// most conservative (shortest) loading window.
const (
	fallbackSunrise = TimeOfDay(7*60 + 33)
	fallbackSunset  = TimeOfDay(15*60 + 32)
)

var (
	// ErrInvalidCoordinates reports a latitude or longitude outside its domain.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrPolarDay reports that the sun never rises or never sets on the
	// requested date, so no sunrise/sunset exists.
	ErrPolarDay = errors.New("sun never rises or sets at this latitude/date")
)

// DayWindows holds sunrise, sunset and the derived window boundaries for one
// calendar day. All fields are local clock times. NightEnd < NightStart is a
// legitimate state and means the night window spans midnight.
type DayWindows struct {
	Sunrise TimeOfDay `json:"sunrise"`
	Sunset  TimeOfDay `json:"sunset"`

	LoadingStart TimeOfDay `json:"loading_start"`
	LoadingEnd   TimeOfDay `json:"loading_end"`
	EveningStart TimeOfDay `json:"evening_start"`
	EveningEnd   TimeOfDay `json:"evening_end"`
	NightStart   TimeOfDay `json:"night_start"`
	NightEnd     TimeOfDay `json:"night_end"`
}

// Calculator derives DayWindows for a location and date.
type Calculator struct {
	logger *logrus.Logger
}

// NewCalculator creates a Calculator logging through logger.
func NewCalculator(logger *logrus.Logger) *Calculator {
	return &Calculator{logger: logger}
}

// Windows returns the day windows for the given coordinates and date.
//
// Calculation failures (coordinates out of range, polar day/night) never
// propagate: the documented fallback windows are returned and the failure is
// logged, so callers always get a usable schedule.
func (c *Calculator) Windows(latitude, longitude float64, date time.Time) DayWindows {
	sunrise, sunset, err := sunTimes(latitude, longitude, date)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"latitude":  latitude,
			"longitude": longitude,
			"date":      date.Format("2006-01-02"),
		}).WithError(err).Error("Sun time calculation failed, using fallback windows")
		return deriveWindows(fallbackSunrise, fallbackSunset)
	}
	if sunrise >= sunset {
		c.logger.WithFields(logrus.Fields{
			"sunrise": sunrise.String(),
			"sunset":  sunset.String(),
		}).Error("Degenerate sun times, using fallback windows")
		return deriveWindows(fallbackSunrise, fallbackSunset)
	}
	return deriveWindows(sunrise, sunset)
}

func deriveWindows(sunrise, sunset TimeOfDay) DayWindows {
	return DayWindows{
		Sunrise:      sunrise,
		Sunset:       sunset,
		LoadingStart: sunrise.Add(loadingStartOffset),
		LoadingEnd:   sunset.Add(loadingEndOffset),
		EveningStart: sunset.Add(eveningStartOffset),
		EveningEnd:   TimeOfDay(23*60 + 59),
		NightStart:   TimeOfDay(0),
		NightEnd:     sunrise.Add(nightEndOffset),
	}
}

// sunTimes computes local sunrise and sunset for the date using the NOAA
// approximation. date's zone supplies the UTC offset.
func sunTimes(latitude, longitude float64, date time.Time) (sunrise, sunset TimeOfDay, err error) {
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return 0, 0, ErrInvalidCoordinates
	}

	const (
		deg2rad = math.Pi / 180
		rad2deg = 180 / math.Pi
		zenith  = 90.833 // official sunrise/sunset, includes refraction
	)

	// Fractional year at solar noon, in radians.
	doy := float64(date.YearDay())
	gamma := 2 * math.Pi / 365 * (doy - 1)

	// Equation of time (minutes) and solar declination (radians).
	eqTime := 229.18 * (0.000075 +
		0.001868*math.Cos(gamma) - 0.032077*math.Sin(gamma) -
		0.014615*math.Cos(2*gamma) - 0.040849*math.Sin(2*gamma))
	decl := 0.006918 -
		0.399912*math.Cos(gamma) + 0.070257*math.Sin(gamma) -
		0.006758*math.Cos(2*gamma) + 0.000907*math.Sin(2*gamma) -
		0.002697*math.Cos(3*gamma) + 0.00148*math.Sin(3*gamma)

	lat := latitude * deg2rad
	cosHA := math.Cos(zenith*deg2rad)/(math.Cos(lat)*math.Cos(decl)) -
		math.Tan(lat)*math.Tan(decl)
	if cosHA < -1 || cosHA > 1 {
		return 0, 0, ErrPolarDay
	}
	haDeg := math.Acos(cosHA) * rad2deg

	// Minutes past UTC midnight, then shifted into the date's zone.
	riseUTC := 720 - 4*(longitude+haDeg) - eqTime
	setUTC := 720 - 4*(longitude-haDeg) - eqTime

	_, zoneOffset := date.Zone()
	offsetMin := zoneOffset / 60

	toLocal := func(utcMin float64) TimeOfDay {
		m := int(math.Round(utcMin)) + offsetMin
		m %= MinutesPerDay
		if m < 0 {
			m += MinutesPerDay
		}
		return TimeOfDay(m)
	}
	return toLocal(riseUTC), toLocal(setUTC), nil
}
