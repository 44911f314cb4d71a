package formulas

// Trading-day offsets for trailing-return windows.
const (
	TradingDays1M  = 21
	TradingDays3M  = 63
	TradingDays6M  = 126
	TradingDays12M = 252
)

// TrailingChange calculates the percentage change between the last price and
// the price `days` trading days earlier. Returns nil when the series is too
// short.
func TrailingChange(prices []float64, days int) *float64 {
	if days <= 0 || len(prices) <= days {
		return nil
	}

	current := prices[len(prices)-1]
	past := prices[len(prices)-1-days]
	if past == 0 {
		return nil
	}

	change := ((current - past) / past) * 100
	return &change
}

// DiscountFromHigh calculates how far a price sits below a high, as a
// percentage of the high.
func DiscountFromHigh(high, price float64) float64 {
	if high <= 0 || price <= 0 {
		return 0
	}
	return ((high - price) / high) * 100
}
