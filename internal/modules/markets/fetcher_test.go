package markets

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const constituentsPage = `
<html><body>
<table class="wikitable">
  <tr><th>Rank</th><th>Company</th></tr>
  <tr><td>1</td><td>Not the table we want</td></tr>
</table>
<table class="wikitable sortable">
  <tr><th>Symbol</th><th>Security</th><th>Sector</th></tr>
  <tr><td>MMM</td><td>3M</td><td>Industrials</td></tr>
  <tr><td> AOS </td><td>A. O. Smith</td><td>Industrials</td></tr>
  <tr><td>BRK.B</td><td>Berkshire Hathaway</td><td>Financials</td></tr>
</table>
</body></html>`

func TestExtractColumn(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(constituentsPage))
	require.NoError(t, err)

	tickers, err := extractColumn(doc, "Symbol")
	require.NoError(t, err)

	// Skips the table without the column, trims whitespace.
	assert.Equal(t, []string{"MMM", "AOS", "BRK.B"}, tickers)
}

func TestExtractColumn_FallbackHeaderName(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(constituentsPage))
	require.NoError(t, err)

	// "Ticker" is absent, the second candidate matches.
	tickers, err := extractColumn(doc, "Ticker", "Symbol")
	require.NoError(t, err)
	assert.Len(t, tickers, 3)
}

func TestExtractColumn_NoMatch(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(constituentsPage))
	require.NoError(t, err)

	_, err = extractColumn(doc, "ISIN")
	assert.Error(t, err)
}

func TestScrapeTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(constituentsPage))
	}))
	defer srv.Close()

	f := NewFetcher(zerolog.Nop())
	tickers, err := f.scrapeTable(srv.URL, "Symbol")
	require.NoError(t, err)
	assert.Equal(t, []string{"MMM", "AOS", "BRK.B"}, tickers)
}

func TestScrapeTable_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher(zerolog.Nop())
	_, err := f.scrapeTable(srv.URL, "Symbol")
	assert.Error(t, err)
}
