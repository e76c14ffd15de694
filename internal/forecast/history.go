package forecast

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/greg-07/pvmon/internal/metrics"
	"github.com/greg-07/pvmon/internal/models"
)

// History persists forecast results as an append-only ordered JSON array.
//
// A missing, unreadable or wrongly shaped file is treated as an empty history:
// the prior content is discarded with a logged warning instead of failing the
// write. Records are never edited or removed.
type History struct {
	path   string
	logger *logrus.Logger

	mu sync.Mutex
}

// NewHistory creates a history store backed by the file at path.
func NewHistory(path string, logger *logrus.Logger) *History {
	return &History{path: path, logger: logger}
}

// Load returns all stored results in append order.
func (h *History) Load() []models.ForecastResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load()
}

// load reads the file without locking; callers hold h.mu.
func (h *History) load() []models.ForecastResult {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if !os.IsNotExist(err) {
			h.reset("unreadable history file", err)
		}
		return nil
	}

	var results []models.ForecastResult
	if err := json.Unmarshal(data, &results); err != nil {
		h.reset("history file is not an ordered sequence", err)
		return nil
	}
	return results
}

func (h *History) reset(reason string, err error) {
	metrics.HistoryResets.Inc()
	h.logger.WithFields(logrus.Fields{"path": h.path}).
		WithError(err).Warnf("Resetting forecast history to empty: %s", reason)
}

// Append adds one result to the history and persists it atomically.
func (h *History) Append(result models.ForecastResult) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	results := append(h.load(), result)
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(h.path), ".history-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), h.path)
}

// Last returns the most recently appended result, if any.
func (h *History) Last() (models.ForecastResult, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	results := h.load()
	if len(results) == 0 {
		return models.ForecastResult{}, false
	}
	return results[len(results)-1], true
}
