package markets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// List is one market's persisted ticker list.
type List struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	UpdatedAt   string   `json:"updated_at"`
	Count       int      `json:"count"`
	Tickers     []string `json:"tickers"`
}

// Store persists per-market ticker lists as JSON files under
// <dataDir>/markets.
type Store struct {
	dir string
	log zerolog.Logger
}

// NewStore creates a market list store rooted at dataDir.
func NewStore(dataDir string, log zerolog.Logger) *Store {
	return &Store{
		dir: filepath.Join(dataDir, "markets"),
		log: log.With().Str("store", "markets").Logger(),
	}
}

// Load reads a market's tickers.
func (s *Store) Load(market string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, market+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read market file for %s: %w", market, err)
	}

	var list List
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse market file for %s: %w", market, err)
	}

	return list.Tickers, nil
}

// Save writes a market's ticker list.
func (s *Store) Save(market string, tickers []string, description string) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create markets directory: %w", err)
	}

	list := List{
		Name:        market,
		Description: description,
		UpdatedAt:   time.Now().Format(time.RFC3339),
		Count:       len(tickers),
		Tickers:     tickers,
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode market list: %w", err)
	}

	if err := os.WriteFile(filepath.Join(s.dir, market+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write market file for %s: %w", market, err)
	}

	return nil
}

// definition describes how one market's constituents are obtained.
type definition struct {
	description string
	fetch       func(f *Fetcher) ([]string, error)
}

var definitions = map[string]definition{
	"sp500": {
		description: "S&P 500 - US Large Cap",
		fetch: func(f *Fetcher) ([]string, error) {
			tickers, err := f.scrapeTable("https://en.wikipedia.org/wiki/List_of_S%26P_500_companies", "Symbol")
			if err != nil {
				return nil, err
			}
			// Yahoo uses dashes where the index uses dots (BRK.B -> BRK-B).
			for i, t := range tickers {
				tickers[i] = strings.ReplaceAll(t, ".", "-")
			}
			sort.Strings(tickers)
			return tickers, nil
		},
	},
	"nasdaq100": {
		description: "NASDAQ 100 - US Tech",
		fetch: func(f *Fetcher) ([]string, error) {
			tickers, err := f.scrapeTable("https://en.wikipedia.org/wiki/Nasdaq-100", "Ticker", "Symbol")
			if err != nil {
				return nil, err
			}
			sort.Strings(tickers)
			return tickers, nil
		},
	},
	"eurostoxx50": {
		description: "Euro Stoxx 50 - European Blue Chips",
		fetch: func(f *Fetcher) ([]string, error) {
			tickers, err := f.scrapeTable("https://en.wikipedia.org/wiki/EURO_STOXX_50", "Ticker")
			if err != nil {
				return append([]string(nil), euroStoxx50Fallback...), nil
			}
			sort.Strings(tickers)
			return tickers, nil
		},
	},
	"cac40": {
		description: "CAC 40 - France",
		fetch: func(f *Fetcher) ([]string, error) {
			tickers, err := f.scrapeTable("https://en.wikipedia.org/wiki/CAC_40", "Ticker")
			if err != nil {
				return append([]string(nil), cac40Fallback...), nil
			}
			for i, t := range tickers {
				if !strings.HasSuffix(t, ".PA") {
					tickers[i] = t + ".PA"
				}
			}
			sort.Strings(tickers)
			return tickers, nil
		},
	},
	"ftse_mib": {
		description: "FTSE MIB - Italy",
		fetch: func(f *Fetcher) ([]string, error) {
			return append([]string(nil), ftseMib...), nil
		},
	},
	"dax40": {
		description: "DAX 40 - Germany",
		fetch: func(f *Fetcher) ([]string, error) {
			return append([]string(nil), dax40...), nil
		},
	},
	"ibex35": {
		description: "IBEX 35 - Spain",
		fetch: func(f *Fetcher) ([]string, error) {
			return append([]string(nil), ibex35...), nil
		},
	},
}

// Names returns all known market names.
func Names() []string {
	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RefreshAll fetches every known market's constituents and persists them.
// A market that fails is logged and skipped.
func (s *Store) RefreshAll(f *Fetcher) error {
	var lastErr error
	for _, name := range Names() {
		def := definitions[name]
		tickers, err := def.fetch(f)
		if err != nil {
			s.log.Warn().Err(err).Str("market", name).Msg("Failed to fetch market list")
			lastErr = err
			continue
		}
		if err := s.Save(name, tickers, def.description); err != nil {
			s.log.Warn().Err(err).Str("market", name).Msg("Failed to save market list")
			lastErr = err
			continue
		}
		s.log.Info().Str("market", name).Int("tickers", len(tickers)).Msg("Market list updated")
	}
	return lastErr
}
