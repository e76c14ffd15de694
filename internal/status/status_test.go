package status

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greg-07/pvmon/internal/models"
	"github.com/greg-07/pvmon/internal/solar"
)

type fakeSnapshots struct{ snapshot models.TelemetrySnapshot }

func (f fakeSnapshots) Snapshot() models.TelemetrySnapshot { return f.snapshot }

type fakeForecasts struct {
	result models.ForecastResult
	ok     bool
}

func (f fakeForecasts) Last() (models.ForecastResult, bool) { return f.result, f.ok }

func newTestProvider(t *testing.T, forecasts ForecastReader) *Provider {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cache, err := solar.NewCache(solar.NewCalculator(logger), 8)
	require.NoError(t, err)

	snapshots := fakeSnapshots{snapshot: models.TelemetrySnapshot{
		Connected: true,
		Battery:   models.BatteryReadings{SOCPercent: 80},
	}}
	return NewProvider(cache, snapshots, forecasts, 51.29, 22.82)
}

func TestCurrentAssemblesAllOutputs(t *testing.T) {
	forecast := models.ForecastResult{ID: "abc", EnergyKWh: 3.2}
	p := newTestProvider(t, fakeForecasts{result: forecast, ok: true})

	// Midsummer noon is always inside the loading window.
	p.now = func() time.Time {
		return time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)
	}

	s := p.Current()

	assert.Equal(t, solar.WindowLoading, s.Window)
	assert.True(t, s.Telemetry.Connected)
	assert.Equal(t, 80.0, s.Telemetry.Battery.SOCPercent)
	require.NotNil(t, s.Forecast)
	assert.Equal(t, "abc", s.Forecast.ID)
	assert.Less(t, s.Windows.Sunrise, s.Windows.Sunset)
}

func TestCurrentWithoutForecast(t *testing.T) {
	p := newTestProvider(t, fakeForecasts{})
	s := p.Current()
	assert.Nil(t, s.Forecast)
}
