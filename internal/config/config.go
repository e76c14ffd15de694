// Package config loads the static installation configuration. The core
// components never read files themselves; they receive plain values from
// here.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Default installation site, substituted when coordinates are absent or
// malformed.
const (
	DefaultLatitude  = 51.290050
	DefaultLongitude = 22.818633
)

// Config holds all configuration for the application.
type Config struct {
	PV       PVConfig       `mapstructure:"pv"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// PVConfig describes the physical installation.
type PVConfig struct {
	Coordinates      string  `mapstructure:"coordinates"` // "lat,lon"
	TiltDegrees      int     `mapstructure:"tilt_degrees"`
	AzimuthDegrees   int     `mapstructure:"azimuth_degrees"`
	InstalledPowerWp float64 `mapstructure:"installed_power_wp"`
}

// MQTTConfig locates the device feed broker.
type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	Port        int    `mapstructure:"port"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
}

// ForecastConfig parameterizes the yield forecast endpoint.
type ForecastConfig struct {
	URL                   string `mapstructure:"url"`
	MaxAttempts           int    `mapstructure:"max_attempts"`
	RetryDelaySeconds     int    `mapstructure:"retry_delay_seconds"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
	HistoryFile           string `mapstructure:"history_file"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from the file at path plus PVMON_* environment
// overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("PVMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pv.coordinates", fmt.Sprintf("%.6f,%.6f", DefaultLatitude, DefaultLongitude))
	v.SetDefault("pv.tilt_degrees", 45)
	v.SetDefault("pv.azimuth_degrees", 180)
	v.SetDefault("pv.installed_power_wp", 2430)

	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.topic_prefix", "SZE")
	v.SetDefault("mqtt.client_id", "pvmon")

	v.SetDefault("forecast.url", "https://api.forecast.solar")
	v.SetDefault("forecast.max_attempts", 3)
	v.SetDefault("forecast.retry_delay_seconds", 60)
	v.SetDefault("forecast.request_timeout_seconds", 30)
	v.SetDefault("forecast.history_file", "forecast_history.json")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.addr", ":9090")
}

// Location parses the "lat,lon" coordinates string. A malformed or missing
// value is an error; callers substitute the default site.
func (p PVConfig) Location() (latitude, longitude float64, err error) {
	parts := strings.Split(p.Coordinates, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("coordinates %q are not \"lat,lon\"", p.Coordinates)
	}
	latitude, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude in %q", p.Coordinates)
	}
	longitude, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude in %q", p.Coordinates)
	}
	return latitude, longitude, nil
}

// KilowattsPeak converts the installed capacity to kWp as the forecast
// endpoint expects it.
func (p PVConfig) KilowattsPeak() float64 {
	return p.InstalledPowerWp / 1000
}
