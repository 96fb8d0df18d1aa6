package model

import "time"

// Order sides
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Snapshot is one point-in-time set of prices keyed by market symbol
// ("btcidr"). It is taken once per scout pass and never reused.
type Snapshot struct {
	Prices  map[string]float64 `json:"prices"`
	TakenAt time.Time          `json:"taken_at"`
}

// Price returns the price of symbol; ok is false when it is absent
func (s *Snapshot) Price(symbol string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	p, ok := s.Prices[symbol]
	if !ok || p <= 0 {
		return 0, false
	}
	return p, true
}

// Fill is the outcome of an executed market order
type Fill struct {
	OrderID  string  `json:"order_id"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Total    float64 `json:"total"` // bridge amount received or spent
}
