package formulas

// MaxDrawdown calculates the maximum drawdown of a price series as a positive
// percentage (25 means a 25% loss from peak). Returns nil when the series is
// too short.
func MaxDrawdown(prices []float64) *float64 {
	if len(prices) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := prices[0]

	for _, price := range prices {
		if price > peak {
			peak = price
		}
		if peak > 0 {
			drawdown := (peak - price) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	pct := maxDrawdown * 100
	return &pct
}
