package solar

// This in-memory cache keeps window calculations to one per location and
// calendar day. golang-lru automatically evicts the least recently accessed
// days, so long-running processes do not accumulate stale entries.

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// Cache memoizes Calculator results per (location, date).
type Cache struct {
	calc  *Calculator
	cache *lru.Cache
}

// NewCache wraps calc with an LRU of the given size.
func NewCache(calc *Calculator, size int) (*Cache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{calc: calc, cache: c}, nil
}

// Windows returns the day windows for the coordinates and date, computing
// them at most once per calendar day per location.
func (c *Cache) Windows(latitude, longitude float64, date time.Time) DayWindows {
	key := cacheKey(latitude, longitude, date)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(DayWindows)
	}
	w := c.calc.Windows(latitude, longitude, date)
	c.cache.Add(key, w)
	return w
}

func cacheKey(latitude, longitude float64, date time.Time) string {
	return fmt.Sprintf("%.6f:%.6f:%s", latitude, longitude, date.Format("2006-01-02"))
}
