package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrailingChange(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		days     int
		expected *float64
	}{
		{
			name:     "too short",
			prices:   []float64{100, 110},
			days:     21,
			expected: nil,
		},
		{
			name:     "positive change",
			prices:   append(constantSeries(100, 21), 110),
			days:     21,
			expected: floatPtr(10),
		},
		{
			name:     "negative change",
			prices:   append(constantSeries(200, 21), 150),
			days:     21,
			expected: floatPtr(-25),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrailingChange(tt.prices, tt.days)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.expected, *got, 0.001)
		})
	}
}

func TestMaxDrawdown(t *testing.T) {
	// Peak 200, trough 100 -> 50% drawdown
	prices := []float64{100, 150, 200, 120, 100, 140}
	dd := MaxDrawdown(prices)
	require.NotNil(t, dd)
	assert.InDelta(t, 50.0, *dd, 0.001)

	assert.Nil(t, MaxDrawdown([]float64{100}))

	// Monotonically rising series never draws down
	flat := MaxDrawdown([]float64{10, 20, 30})
	require.NotNil(t, flat)
	assert.Equal(t, 0.0, *flat)
}

func TestDiscountFromHigh(t *testing.T) {
	assert.InDelta(t, 20.0, DiscountFromHigh(100, 80), 0.001)
	assert.Equal(t, 0.0, DiscountFromHigh(0, 80))
	assert.Equal(t, 0.0, DiscountFromHigh(100, 0))
}

func TestBeta(t *testing.T) {
	benchmark := []float64{0.01, -0.02, 0.015, 0.005, -0.01}

	// A security moving exactly with the benchmark has beta 1
	beta := Beta(benchmark, benchmark)
	require.NotNil(t, beta)
	assert.InDelta(t, 1.0, *beta, 0.001)

	// Doubled moves -> beta 2
	double := make([]float64, len(benchmark))
	for i, r := range benchmark {
		double[i] = 2 * r
	}
	beta = Beta(double, benchmark)
	require.NotNil(t, beta)
	assert.InDelta(t, 2.0, *beta, 0.001)

	// Mismatched lengths
	assert.Nil(t, Beta(benchmark[:3], benchmark))
}

func TestCalculateReturns(t *testing.T) {
	returns := CalculateReturns([]float64{100, 110, 99})
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 0.001)
	assert.InDelta(t, -0.10, returns[1], 0.001)
}

func constantSeries(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func floatPtr(f float64) *float64 { return &f }
