package forecast

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/greg-07/pvmon/internal/models"
)

func TestTickIdempotentWithinMinute(t *testing.T) {
	s := NewScheduler(nil, testLogger())

	clock := time.Date(2024, 6, 21, 0, 0, 10, 0, time.UTC)
	s.now = func() time.Time { return clock }

	var runs atomic.Int32
	run := func(context.Context) (models.ForecastResult, error) {
		runs.Add(1)
		return models.ForecastResult{}, nil
	}

	s.tick(models.ForecastFullWindow, run)
	s.tick(models.ForecastFullWindow, run)
	assert.Equal(t, int32(1), runs.Load(), "second invocation in the same minute must be a no-op")

	// A different tick type is tracked independently.
	s.tick(models.ForecastPartialWindow, run)
	assert.Equal(t, int32(2), runs.Load())

	// The next minute runs again.
	clock = clock.Add(time.Minute)
	s.tick(models.ForecastFullWindow, run)
	assert.Equal(t, int32(3), runs.Load())
}

func TestTickSurvivesRunFailure(t *testing.T) {
	s := NewScheduler(nil, testLogger())

	clock := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	failing := func(context.Context) (models.ForecastResult, error) {
		return models.ForecastResult{}, errors.New("endpoint down")
	}

	assert.NotPanics(t, func() {
		s.tick(models.ForecastPartialWindow, failing)
	})

	// The guard still advances, and the next minute is runnable.
	clock = clock.Add(time.Minute)
	var ran bool
	s.tick(models.ForecastPartialWindow, func(context.Context) (models.ForecastResult, error) {
		ran = true
		return models.ForecastResult{}, nil
	})
	assert.True(t, ran)
}
