package scan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MainListName is the combined candidates document consumed by the sync CLI
// and the dashboard exporter.
const MainListName = "MAIN_LIST.json"

// Document is a persisted candidates collection. Two historical shapes
// exist: a flat stocks/candidates list and three tiered lists. Both load
// transparently.
type Document struct {
	Market          string           `json:"market,omitempty"`
	ScanDate        string           `json:"scan_date,omitempty"`
	ScannedAt       string           `json:"scanned_at,omitempty"`
	MinYield        float64          `json:"min_yield,omitempty"`
	TotalCandidates int              `json:"total_candidates,omitempty"`
	Stocks          []map[string]any `json:"stocks,omitempty"`
	Candidates      []map[string]any `json:"candidates,omitempty"`
	Tier1           []map[string]any `json:"tier1_high_sustainable,omitempty"`
	Tier2           []map[string]any `json:"tier2_moderate_sustainable,omitempty"`
	Tier3           []map[string]any `json:"tier3_high_risk,omitempty"`
}

// All returns every record in the document, flattening tiers when present.
func (d *Document) All() []map[string]any {
	if len(d.Stocks) > 0 {
		return d.Stocks
	}
	if len(d.Candidates) > 0 {
		return d.Candidates
	}

	all := []map[string]any{}
	all = append(all, d.Tier1...)
	all = append(all, d.Tier2...)
	all = append(all, d.Tier3...)
	return all
}

// LoadDocument reads a candidates document from disk.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse candidates file %s: %w", path, err)
	}

	return &doc, nil
}

// SaveDocument writes a candidates document, creating parent directories as
// needed.
func SaveDocument(path string, doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create candidates directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode candidates: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write candidates file: %w", err)
	}

	return nil
}
