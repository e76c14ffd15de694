package forecast

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/greg-07/pvmon/internal/metrics"
	"github.com/greg-07/pvmon/internal/models"
)

const tickTimeout = 10 * time.Minute

// Scheduler fires the two daily forecast ticks: midnight (full loading
// window) and noon (remainder of the window). Ticks run at minute
// granularity; a guard makes a tick idempotent against firing twice within
// the same minute. A failed tick is logged and skipped, it never stops the
// schedule.
type Scheduler struct {
	integrator *Integrator
	logger     *logrus.Logger
	cron       *cron.Cron

	mu       sync.Mutex
	lastTick map[string]time.Time

	now func() time.Time
}

// NewScheduler creates a scheduler around the integrator.
func NewScheduler(integrator *Integrator, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		integrator: integrator,
		logger:     logger,
		cron:       cron.New(),
		lastTick:   make(map[string]time.Time),
		now:        time.Now,
	}
}

// Start registers the daily ticks and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 * * *", func() {
		s.tick(models.ForecastFullWindow, s.integrator.RunFull)
	}); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 12 * * *", func() {
		s.tick(models.ForecastPartialWindow, s.integrator.RunPartial)
	}); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop. Running ticks finish on their own.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) tick(resultType string, run func(context.Context) (models.ForecastResult, error)) {
	if !s.claimMinute(resultType) {
		s.logger.WithFields(logrus.Fields{"type": resultType}).
			Debug("Tick already ran this minute, skipping")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	if _, err := run(ctx); err != nil {
		metrics.ForecastTicks.WithLabelValues(resultType, "skipped").Inc()
		s.logger.WithFields(logrus.Fields{"type": resultType}).
			WithError(err).Error("Forecast tick failed, no result recorded")
		return
	}
	metrics.ForecastTicks.WithLabelValues(resultType, "ok").Inc()
}

// claimMinute returns true at most once per tick type per wall-clock minute.
func (s *Scheduler) claimMinute(resultType string) bool {
	minute := s.now().Truncate(time.Minute)

	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastTick[resultType]; ok && last.Equal(minute) {
		return false
	}
	s.lastTick[resultType] = minute
	return true
}
