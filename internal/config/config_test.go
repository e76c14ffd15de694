package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
pv:
  coordinates: "51.290050, 22.818633"
  tilt_degrees: 45
  azimuth_degrees: 180
  installed_power_wp: 2430

mqtt:
  broker: "192.168.8.143"
  port: 1883
  topic_prefix: "SZE"

forecast:
  url: "https://api.forecast.solar"
  max_attempts: 3
  retry_delay_seconds: 60
  history_file: "forecast_history.json"

logging:
  level: "debug"
  format: "text"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "192.168.8.143", cfg.MQTT.Broker)
	assert.Equal(t, 1883, cfg.MQTT.Port)
	assert.Equal(t, "SZE", cfg.MQTT.TopicPrefix)
	assert.Equal(t, "https://api.forecast.solar", cfg.Forecast.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)

	lat, lon, err := cfg.PV.Location()
	require.NoError(t, err)
	assert.InDelta(t, 51.290050, lat, 1e-9)
	assert.InDelta(t, 22.818633, lon, 1e-9)
	assert.InDelta(t, 2.43, cfg.PV.KilowattsPeak(), 1e-9)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker: "localhost"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1883, cfg.MQTT.Port)
	assert.Equal(t, "SZE", cfg.MQTT.TopicPrefix)
	assert.Equal(t, 3, cfg.Forecast.MaxAttempts)
	assert.Equal(t, 60, cfg.Forecast.RetryDelaySeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)

	lat, lon, err := cfg.PV.Location()
	require.NoError(t, err)
	assert.InDelta(t, DefaultLatitude, lat, 1e-9)
	assert.InDelta(t, DefaultLongitude, lon, 1e-9)
}

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("PVMON_MQTT_BROKER", "envhost")
	t.Setenv("PVMON_MQTT_PORT", "1884")

	path := writeConfig(t, `
mqtt:
  broker: "filehost"
  port: 1883
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "envhost", cfg.MQTT.Broker)
	assert.Equal(t, 1884, cfg.MQTT.Port)
}

func TestLocationMalformed(t *testing.T) {
	tests := []struct {
		name   string
		coords string
	}{
		{"empty", ""},
		{"no comma", "51.29 22.82"},
		{"bad latitude", "north,22.82"},
		{"bad longitude", "51.29,east"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := PVConfig{Coordinates: tt.coords}.Location()
			assert.Error(t, err)
		})
	}
}
