package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/greg-07/pvmon/internal/config"
	"github.com/greg-07/pvmon/internal/forecast"
	"github.com/greg-07/pvmon/internal/solar"
	"github.com/greg-07/pvmon/internal/status"
	"github.com/greg-07/pvmon/internal/telemetry"
)

// Command pvmon monitors and forecasts energy flow for a home PV/battery/grid
// installation.
//
// It runs two long-lived loops for the lifetime of the process:
//   - the telemetry aggregator, fed by the device's MQTT broker
//   - the forecast scheduler, integrating expected solar yield at midnight
//     (full loading window) and noon (window remainder)
//
// Usage:
//
//	pvmon [flags]
//
// The flags are:
//
//	-config string
//	      path to config file (default "config.yaml")
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Logging)

	latitude, longitude, err := cfg.PV.Location()
	if err != nil {
		logger.WithError(err).Warn("Coordinates missing or malformed, using default site")
		latitude, longitude = config.DefaultLatitude, config.DefaultLongitude
	}

	logger.WithFields(logrus.Fields{
		"latitude":  latitude,
		"longitude": longitude,
		"broker":    cfg.MQTT.Broker,
		"prefix":    cfg.MQTT.TopicPrefix,
	}).Info("Starting pvmon")

	windows, err := solar.NewCache(solar.NewCalculator(logger), 32)
	if err != nil {
		logger.Fatalf("Failed to create window cache: %v", err)
	}

	// Telemetry aggregator. A failed connect is not fatal: the dashboard
	// simply sees stale data until the broker is reachable again.
	transport := telemetry.NewMQTTTransport(cfg.MQTT.Broker, cfg.MQTT.Port, cfg.MQTT.ClientID, logger)
	aggregator := telemetry.NewAggregator(transport, cfg.MQTT.TopicPrefix, logger)
	if !aggregator.Connect() {
		logger.Warn("Device feed unavailable, telemetry will be stale")
	}

	// Forecast pipeline.
	client := forecast.NewClient(forecast.ClientConfig{
		BaseURL:        cfg.Forecast.URL,
		Latitude:       latitude,
		Longitude:      longitude,
		TiltDegrees:    cfg.PV.TiltDegrees,
		AzimuthDegrees: cfg.PV.AzimuthDegrees,
		KilowattsPeak:  cfg.PV.KilowattsPeak(),
		MaxAttempts:    cfg.Forecast.MaxAttempts,
		RetryDelay:     time.Duration(cfg.Forecast.RetryDelaySeconds) * time.Second,
		RequestTimeout: time.Duration(cfg.Forecast.RequestTimeoutSeconds) * time.Second,
	}, time.Local, logger)
	history := forecast.NewHistory(cfg.Forecast.HistoryFile, logger)
	integrator := forecast.NewIntegrator(client, windows, history, latitude, longitude, logger)

	scheduler := forecast.NewScheduler(integrator, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("Failed to start forecast scheduler: %v", err)
	}

	provider := status.NewProvider(windows, aggregator, history, latitude, longitude)
	go logStatus(provider, logger)

	go func() {
		if err := http.ListenAndServe(cfg.Metrics.Addr, promhttp.Handler()); err != nil {
			logger.WithError(err).Error("Metrics listener stopped")
		}
	}()

	waitForShutdown(logger)

	scheduler.Stop()
	aggregator.Disconnect()
	aggregator.Close()
	logger.Info("Shutdown complete")
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// logStatus periodically records the assembled system view so operators can
// follow the installation from the process log alone.
func logStatus(provider *status.Provider, logger *logrus.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s := provider.Current()
		fields := logrus.Fields{
			"window":       s.Window,
			"connected":    s.Telemetry.Connected,
			"battery_soc":  s.Telemetry.Battery.SOCPercent,
			"pv_power_w":   s.Telemetry.PV.PowerW,
			"grid_power_w": s.Telemetry.Grid.PowerW,
		}
		if s.Forecast != nil {
			fields["forecast_kwh"] = s.Forecast.EnergyKWh
		}
		logger.WithFields(fields).Info("Status")
	}
}

func waitForShutdown(logger *logrus.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.WithFields(logrus.Fields{"signal": sig.String()}).Info("Shutting down")
}
