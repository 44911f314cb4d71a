package analysis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Cache stores per-ticker analysis documents as JSON files under
// <dataDir>/analysis.
type Cache struct {
	dir string
	ttl time.Duration
}

// NewCache creates an analysis cache. ttlHours controls how long a cached
// document stays fresh.
func NewCache(dataDir string, ttlHours int) *Cache {
	return &Cache{
		dir: filepath.Join(dataDir, "analysis"),
		ttl: time.Duration(ttlHours) * time.Hour,
	}
}

func (c *Cache) path(ticker string) string {
	// Tickers like BRK.B would otherwise produce hidden file extensions.
	name := strings.ReplaceAll(strings.ToUpper(ticker), ".", "_")
	return filepath.Join(c.dir, name+".json")
}

// Get returns a cached report if one exists and is still fresh.
func (c *Cache) Get(ticker string) (*Report, bool) {
	data, err := os.ReadFile(c.path(ticker))
	if err != nil {
		return nil, false
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false
	}

	analyzedAt, err := time.Parse(time.RFC3339, report.AnalyzedAt)
	if err != nil || time.Since(analyzedAt) > c.ttl {
		return nil, false
	}

	return &report, true
}

// Put persists a report.
func (c *Cache) Put(report *Report) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create analysis directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode analysis report: %w", err)
	}

	if err := os.WriteFile(c.path(report.Ticker), data, 0644); err != nil {
		return fmt.Errorf("failed to write analysis report: %w", err)
	}

	return nil
}
