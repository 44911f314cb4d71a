package stocks

import (
	"fmt"
	"strings"
)

// Field aliases, in resolution priority order. Feed sources disagree on key
// names; the first key present in the record wins, even when its value is
// zero.
var (
	yieldKeys    = []string{"dividend_yield", "yield"}
	rateKeys     = []string{"dividend_rate", "div_rate"}
	payoutKeys   = []string{"payout_ratio", "payout"}
	discountKeys = []string{"dist_from_high", "discount_from_high"}
	marketKeys   = []string{"market", "ocean_market"}
	accessKeys   = []string{"accessible", "ocean_accessible"}
)

// Normalizer maps heterogeneous external quote records into canonical
// Records.
//
// Unit convention: every percentage field is whole percent (5.77 = 5.77%).
// Sources that return payout ratio as a 0-1 fraction scale it at their own
// boundary (see the yahoo client); yield arrives already in percent. The
// normalizer never rescales.
type Normalizer struct {
	maxPayoutRatio float64
}

// NewNormalizer creates a normalizer. maxPayoutRatio is the payout percentage
// above which a dividend is considered unsustainable.
func NewNormalizer(maxPayoutRatio float64) *Normalizer {
	return &Normalizer{maxPayoutRatio: maxPayoutRatio}
}

// Normalize converts an external quote record into a canonical Record.
// Ticker is the only mandatory field; everything else defaults.
func (n *Normalizer) Normalize(record map[string]any) (*Record, error) {
	ticker := strings.ToUpper(strings.TrimSpace(stringValue(record, "ticker")))
	if ticker == "" {
		return nil, fmt.Errorf("record has no ticker")
	}

	out := &Record{
		Stock: Stock{
			Ticker:     ticker,
			Name:       stringValue(record, "name"),
			Sector:     stringValue(record, "sector"),
			Industry:   stringValue(record, "industry"),
			Currency:   stringValue(record, "currency"),
			Market:     resolveString(record, marketKeys...),
			AssetType:  defaultString(stringValue(record, "asset_type"), "stock"),
			Accessible: resolveBool(record, accessKeys...),
		},
		Snapshot: Snapshot{
			Ticker:         ticker,
			Price:          floatOrZero(record, "price"),
			DividendYield:  resolveFloatOrZero(record, yieldKeys...),
			DividendRate:   resolveFloatOrZero(record, rateKeys...), // absent genuinely means no dividend
			PayoutRatio:    resolveFloat(record, payoutKeys...),
			PERatio:        resolveFloat(record, "pe_ratio"),
			MarketCap:      floatOrZero(record, "market_cap"),
			Week52High:     floatOrZero(record, "52w_high"),
			Week52Low:      floatOrZero(record, "52w_low"),
			Change1M:       resolveFloat(record, "change_1m"),
			Change3M:       resolveFloat(record, "change_3m"),
			Change6M:       resolveFloat(record, "change_6m"),
			Change12M:      resolveFloat(record, "change_12m"),
			DistFromHigh:   resolveFloat(record, discountKeys...),
			MaxDrawdown12M: resolveFloat(record, "max_drawdown_12m"),
			Beta:           resolveFloat(record, "beta"),
			DividendScore:  resolveFloat(record, "dividend_score"),
			CapitalScore:   resolveFloat(record, "capital_score"),
		},
		ExDividendDate: stringValue(record, "ex_dividend_date"),
	}

	out.Snapshot.Sustainable = n.sustainable(record, out.Snapshot.PayoutRatio)

	return out, nil
}

// sustainable resolves the sustainability flag. An explicit value wins.
// With no flag, a known payout ratio decides. With neither, default true:
// absence of evidence is not evidence of unsustainability.
func (n *Normalizer) sustainable(record map[string]any, payout *float64) bool {
	if val, ok := record["sustainable"]; ok && val != nil {
		if b, isBool := val.(bool); isBool {
			return b
		}
	}
	if payout != nil {
		return *payout <= n.maxPayoutRatio
	}
	return true
}

// resolve returns the value of the first present key, even when that value
// is zero. A present-but-nil value counts as absent.
func resolve(record map[string]any, names ...string) (any, bool) {
	for _, name := range names {
		if val, ok := record[name]; ok && val != nil {
			return val, true
		}
	}
	return nil, false
}

// resolveFloat resolves a nullable numeric field: missing means nil, not zero.
func resolveFloat(record map[string]any, names ...string) *float64 {
	val, ok := resolve(record, names...)
	if !ok {
		return nil
	}
	return toFloat64(val)
}

// resolveFloatOrZero resolves a numeric field where absence means zero.
func resolveFloatOrZero(record map[string]any, names ...string) float64 {
	if f := resolveFloat(record, names...); f != nil {
		return *f
	}
	return 0
}

func floatOrZero(record map[string]any, name string) float64 {
	return resolveFloatOrZero(record, name)
}

func resolveString(record map[string]any, names ...string) string {
	val, ok := resolve(record, names...)
	if !ok {
		return ""
	}
	if s, isString := val.(string); isString {
		return s
	}
	return ""
}

func resolveBool(record map[string]any, names ...string) bool {
	val, ok := resolve(record, names...)
	if !ok {
		return false
	}
	if b, isBool := val.(bool); isBool {
		return b
	}
	return false
}

func stringValue(record map[string]any, name string) string {
	return resolveString(record, name)
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// toFloat64 coerces JSON-decoded numbers. Records built in code may carry
// int values for score fields.
func toFloat64(val any) *float64 {
	switch v := val.(type) {
	case float64:
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	}
	return nil
}
