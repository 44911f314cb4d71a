package formulas

import (
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// CalculateReturns converts prices to percentage returns
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// Beta calculates the beta of a security's daily returns against a
// benchmark's daily returns (covariance / benchmark variance).
// Returns nil when the series are too short or mismatched.
func Beta(securityReturns, benchmarkReturns []float64) *float64 {
	n := len(securityReturns)
	if n < 2 || n != len(benchmarkReturns) {
		return nil
	}

	variance := stat.Variance(benchmarkReturns, nil)
	if variance == 0 {
		return nil
	}

	beta := stat.Covariance(securityReturns, benchmarkReturns, nil) / variance
	return &beta
}
