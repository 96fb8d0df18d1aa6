package model

// Coin is one tradable asset of the scouting universe
type Coin struct {
	Symbol  string `json:"symbol"`
	Enabled bool   `json:"enabled"`
}

// SetCoinEnabledRequest toggles a coin in the scouting universe
type SetCoinEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// Pair is an ordered (from, to) coin pair and its stored fair ratio.
// Ratio is nil while the pair is uninitialized.
type Pair struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Ratio *float64 `json:"ratio"`
}

// HasRatio reports whether the pair carries a usable ratio
func (p Pair) HasRatio() bool {
	return p.Ratio != nil && *p.Ratio > 0
}

// Key returns the "from:to" identifier of the pair
func (p Pair) Key() string {
	return p.From + ":" + p.To
}
