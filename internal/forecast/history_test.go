package forecast

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greg-07/pvmon/internal/models"
)

func tempHistory(t *testing.T) *History {
	t.Helper()
	return NewHistory(filepath.Join(t.TempDir(), "forecast_history.json"), testLogger())
}

func sampleResult(id string, kwh float64) models.ForecastResult {
	return models.ForecastResult{
		ID:        id,
		Date:      "2024-06-21",
		Window:    "loading",
		Start:     time.Date(2024, 6, 21, 4, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 6, 21, 17, 30, 0, 0, time.UTC),
		EnergyKWh: kwh,
		Type:      models.ForecastFullWindow,
	}
}

func TestHistoryAppendAndLoad(t *testing.T) {
	h := tempHistory(t)

	require.NoError(t, h.Append(sampleResult("a", 1.5)))
	require.NoError(t, h.Append(sampleResult("b", 2.25)))

	results := h.Load()
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
	assert.Equal(t, 2.25, results[1].EnergyKWh)
}

func TestHistoryMissingFileIsEmpty(t *testing.T) {
	h := tempHistory(t)
	assert.Empty(t, h.Load())

	_, ok := h.Last()
	assert.False(t, ok)
}

func TestHistoryCorruptFileResetsToEmpty(t *testing.T) {
	h := tempHistory(t)
	require.NoError(t, os.WriteFile(h.path, []byte(`{"not": "an array"}`), 0o644))

	assert.Empty(t, h.Load())

	// Appending after corruption starts a fresh single-entry sequence.
	require.NoError(t, h.Append(sampleResult("fresh", 3.0)))
	results := h.Load()
	require.Len(t, results, 1)
	assert.Equal(t, "fresh", results[0].ID)
}

func TestHistoryLast(t *testing.T) {
	h := tempHistory(t)

	require.NoError(t, h.Append(sampleResult("first", 1.0)))
	require.NoError(t, h.Append(sampleResult("second", 2.0)))

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, "second", last.ID)
}
