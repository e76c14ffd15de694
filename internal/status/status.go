// Package status assembles the structured outputs the dashboard layer
// consumes: the current window label, a telemetry snapshot copy and the most
// recent forecast result.
package status

import (
	"time"

	"github.com/greg-07/pvmon/internal/models"
	"github.com/greg-07/pvmon/internal/solar"
)

// SnapshotReader yields a copy of the current telemetry state.
type SnapshotReader interface {
	Snapshot() models.TelemetrySnapshot
}

// ForecastReader yields the most recent forecast result, if any.
type ForecastReader interface {
	Last() (models.ForecastResult, bool)
}

// Status is one coherent view of the installation at a point in time.
type Status struct {
	Timestamp time.Time                `json:"timestamp"`
	Window    solar.Window             `json:"window"`
	Windows   solar.DayWindows         `json:"windows"`
	Telemetry models.TelemetrySnapshot `json:"telemetry"`
	Forecast  *models.ForecastResult   `json:"forecast,omitempty"`
}

// Provider builds Status values on demand.
type Provider struct {
	windows   *solar.Cache
	telemetry SnapshotReader
	forecasts ForecastReader

	latitude  float64
	longitude float64

	now func() time.Time
}

// NewProvider wires a provider for one installation location.
func NewProvider(windows *solar.Cache, telemetry SnapshotReader, forecasts ForecastReader,
	latitude, longitude float64) *Provider {
	return &Provider{
		windows:   windows,
		telemetry: telemetry,
		forecasts: forecasts,
		latitude:  latitude,
		longitude: longitude,
		now:       time.Now,
	}
}

// Current returns the present status. All embedded data are copies; callers
// may hold them indefinitely.
func (p *Provider) Current() Status {
	now := p.now()
	w := p.windows.Windows(p.latitude, p.longitude, now)

	s := Status{
		Timestamp: now,
		Window:    solar.Classify(solar.TimeOfDayFrom(now), w),
		Windows:   w,
		Telemetry: p.telemetry.Snapshot(),
	}
	if last, ok := p.forecasts.Last(); ok {
		s.Forecast = &last
	}
	return s
}
