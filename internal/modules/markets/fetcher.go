package markets

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// Fetcher scrapes index constituent tables from Wikipedia.
type Fetcher struct {
	client *http.Client
	log    zerolog.Logger
}

// NewFetcher creates a constituent fetcher.
func NewFetcher(log zerolog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.With().Str("client", "markets").Logger(),
	}
}

// scrapeTable finds the first wikitable whose header contains one of the
// given column names and returns that column's cell values.
func (f *Fetcher) scrapeTable(url string, columns ...string) ([]string, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return extractColumn(doc, columns...)
}

// extractColumn pulls a ticker column out of the first matching wikitable.
func extractColumn(doc *goquery.Document, columns ...string) ([]string, error) {
	var tickers []string

	doc.Find("table.wikitable").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		col := -1
		table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
			header := strings.TrimSpace(th.Text())
			for _, want := range columns {
				if col == -1 && strings.EqualFold(header, want) {
					col = i
				}
			}
		})
		if col == -1 {
			return true // try the next table
		}

		table.Find("tr").Each(func(i int, tr *goquery.Selection) {
			if i == 0 {
				return // header row
			}
			cell := tr.Find("td").Eq(col)
			if ticker := strings.TrimSpace(cell.Text()); ticker != "" {
				tickers = append(tickers, ticker)
			}
		})

		return false
	})

	if len(tickers) == 0 {
		return nil, fmt.Errorf("no table with columns %v found", columns)
	}

	return tickers, nil
}
