package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/greg-07/pvmon/internal/models"
	"github.com/greg-07/pvmon/internal/solar"
)

// Integrator produces one ForecastResult per tick: fetch the power curve,
// apply the month's correction factor, integrate over the loading window and
// append to the history.
type Integrator struct {
	client  *Client
	windows *solar.Cache
	history *History
	logger  *logrus.Logger

	latitude  float64
	longitude float64

	now func() time.Time
}

// NewIntegrator wires the forecast pipeline for one installation location.
func NewIntegrator(client *Client, windows *solar.Cache, history *History,
	latitude, longitude float64, logger *logrus.Logger) *Integrator {
	return &Integrator{
		client:    client,
		windows:   windows,
		history:   history,
		logger:    logger,
		latitude:  latitude,
		longitude: longitude,
		now:       time.Now,
	}
}

// RunFull integrates the entire loading window of the current day.
func (i *Integrator) RunFull(ctx context.Context) (models.ForecastResult, error) {
	return i.run(ctx, models.ForecastFullWindow)
}

// RunPartial integrates only the remainder of the loading window from noon
// onward.
func (i *Integrator) RunPartial(ctx context.Context) (models.ForecastResult, error) {
	return i.run(ctx, models.ForecastPartialWindow)
}

func (i *Integrator) run(ctx context.Context, resultType string) (models.ForecastResult, error) {
	now := i.now()
	w := i.windows.Windows(i.latitude, i.longitude, now)

	start := w.LoadingStart.At(now)
	end := w.LoadingEnd.At(now)
	if resultType == models.ForecastPartialWindow {
		noon := solar.TimeOfDay(12 * 60).At(now)
		if noon.After(start) {
			start = noon
		}
	}
	if end.Before(start) {
		end = start
	}

	series, err := i.client.Fetch(ctx)
	if err != nil {
		return models.ForecastResult{}, fmt.Errorf("forecast fetch failed: %w", err)
	}

	factor := FactorForMonth(int(now.Month()))
	energy := Integrate(Corrected(series, factor), start, end)

	result := models.ForecastResult{
		ID:        uuid.NewString(),
		Date:      now.Format("2006-01-02"),
		Window:    string(solar.WindowLoading),
		Start:     start,
		End:       end,
		EnergyKWh: energy,
		Type:      resultType,
	}

	if err := i.history.Append(result); err != nil {
		return models.ForecastResult{}, fmt.Errorf("failed to persist forecast result: %w", err)
	}

	i.logger.WithFields(logrus.Fields{
		"type":       resultType,
		"window":     fmt.Sprintf("%s - %s", start.Format("15:04"), end.Format("15:04")),
		"energy_kwh": fmt.Sprintf("%.3f", energy),
		"factor":     factor,
	}).Info("Forecast result recorded")

	return result, nil
}
