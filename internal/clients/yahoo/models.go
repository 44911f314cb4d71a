package yahoo

import "time"

// HistoricalPrice is one day of OHLCV data.
type HistoricalPrice struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
	AdjClose float64   `json:"adj_close"`
}

// DividendPayment is one historical dividend payout.
type DividendPayment struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}
