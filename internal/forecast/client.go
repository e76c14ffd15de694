// Package forecast turns an external power-curve forecast into per-window
// energy estimates: fetch with retry, seasonal correction, trapezoidal
// integration, scheduled ticks and a persisted result history.
package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/greg-07/pvmon/internal/metrics"
)

var (
	ErrFetchRequest     = errors.New("error making forecast request")
	ErrFetchStatus      = errors.New("error status from forecast endpoint")
	ErrRetriesExhausted = errors.New("rate limit retries exhausted")
)

// Sample is one point of the forecast power curve.
type Sample struct {
	Time  time.Time
	Watts float64
}

// Series is a forecast power curve ordered by time. Read-only once parsed.
type Series []Sample

// apiResponse mirrors the forecast endpoint body: result.watts maps local
// timestamp strings to instantaneous watt values.
type apiResponse struct {
	Result struct {
		Watts map[string]json.Number `json:"watts"`
	} `json:"result"`
}

// timestamp layouts accepted from the endpoint.
var sampleLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ClientConfig parameterizes the forecast endpoint request.
type ClientConfig struct {
	BaseURL        string
	Latitude       float64
	Longitude      float64
	TiltDegrees    int
	AzimuthDegrees int
	KilowattsPeak  float64

	MaxAttempts    int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
}

// Client fetches the yield forecast for one installation.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
	loc     *time.Location

	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Client. loc is the zone the endpoint's timestamps are
// interpreted in, normally the installation's local zone.
func NewClient(cfg ClientConfig, loc *time.Location, logger *logrus.Logger) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Minute
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		// The public endpoint rations anonymous callers; one request per
		// 15 seconds stays well inside its budget.
		limiter: rate.NewLimiter(rate.Every(15*time.Second), 1),
		logger:  logger,
		loc:     loc,
		sleep:   sleepContext,
	}
}

func (c *Client) url() string {
	return fmt.Sprintf("%s/estimate/%.6f/%.6f/%d/%d/%.3f",
		c.cfg.BaseURL,
		c.cfg.Latitude,
		c.cfg.Longitude,
		c.cfg.TiltDegrees,
		c.cfg.AzimuthDegrees,
		c.cfg.KilowattsPeak,
	)
}

// Fetch retrieves and parses the forecast power curve.
//
// On a rate-limit response it waits for the server-supplied reset time (or a
// fixed fallback delay) plus jitter and retries, up to MaxAttempts. Any other
// non-success status is terminal. The returned series is sorted by time.
func (c *Client) Fetch(ctx context.Context) (Series, error) {
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetchRequest, err)
		}

		series, retryAfter, err := c.attempt(ctx)
		if err == nil {
			metrics.ForecastFetches.WithLabelValues("ok").Inc()
			return series, nil
		}
		if retryAfter < 0 {
			metrics.ForecastFetches.WithLabelValues("error").Inc()
			return nil, err
		}

		metrics.ForecastFetches.WithLabelValues("rate_limited").Inc()
		delay := retryAfter + jitter(5*time.Second)
		c.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   delay.String(),
		}).Warn("Forecast endpoint rate limited, backing off")

		if err := c.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetchRequest, err)
		}
	}
	return nil, ErrRetriesExhausted
}

// attempt performs a single request. retryAfter >= 0 marks a retryable
// rate-limit response; -1 marks a terminal outcome.
func (c *Client) attempt(ctx context.Context) (Series, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(), nil)
	if err != nil {
		return nil, -1, fmt.Errorf("%w: %v", ErrFetchRequest, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, -1, fmt.Errorf("%w: %v", ErrFetchRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		series, err := c.parse(resp)
		return series, -1, err
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, c.retryAfter(resp), errors.New("rate limited")
	default:
		return nil, -1, fmt.Errorf("%w: got %d", ErrFetchStatus, resp.StatusCode)
	}
}

// retryAfter reads the server's Retry-After seconds, falling back to the
// configured fixed delay.
func (c *Client) retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return c.cfg.RetryDelay
}

func (c *Client) parse(resp *http.Response) (Series, error) {
	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode forecast response: %v", err)
	}
	if body.Result.Watts == nil {
		return nil, fmt.Errorf("forecast response has no watts series")
	}

	series := make(Series, 0, len(body.Result.Watts))
	for ts, raw := range body.Result.Watts {
		t, err := c.parseTimestamp(ts)
		if err != nil {
			c.logger.WithFields(logrus.Fields{"timestamp": ts}).
				Warn("Skipping forecast sample with unparsable timestamp")
			continue
		}
		w, err := raw.Float64()
		if err != nil {
			c.logger.WithFields(logrus.Fields{"timestamp": ts, "value": raw.String()}).
				Warn("Skipping forecast sample with non-numeric power")
			continue
		}
		series = append(series, Sample{Time: t, Watts: w})
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Time.Before(series[j].Time) })
	return series, nil
}

func (c *Client) parseTimestamp(ts string) (time.Time, error) {
	var lastErr error
	for _, layout := range sampleLayouts {
		t, err := time.ParseInLocation(layout, ts, c.loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func jitter(max time.Duration) time.Duration {
	return time.Duration(rand.Int63n(int64(max)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
