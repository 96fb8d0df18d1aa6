package model

import "time"

// ScoutRecord is one observational entry written for every evaluated pair
type ScoutRecord struct {
	ID           string    `json:"id"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	TargetRatio  float64   `json:"target_ratio"`
	CurrentPrice float64   `json:"current_coin_price"`
	OtherPrice   float64   `json:"other_coin_price"`
	Datetime     time.Time `json:"datetime"`
}

// Jump states
const (
	JumpStateSelling    = "selling"
	JumpStateBuying     = "buying"
	JumpStateSettled    = "settled"
	JumpStateRolledBack = "rolled_back"
	JumpStateFailed     = "failed"
)

// Jump records a bridge trade from one coin to another. Bridge rebalance
// buys are stored with From equal to the bridge and no sell fill.
type Jump struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	State     string    `json:"state"`
	SellFill  *Fill     `json:"sell_fill,omitempty"`
	BuyFill   *Fill     `json:"buy_fill,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CoinValue is a periodic valuation of one held coin
type CoinValue struct {
	Coin        string    `json:"coin"`
	Balance     float64   `json:"balance"`
	BridgePrice float64   `json:"bridge_price"`
	BTCPrice    float64   `json:"btc_price"`
	BridgeValue float64   `json:"bridge_value"`
	BTCValue    float64   `json:"btc_value"`
	Bridge      string    `json:"bridge"`
	Datetime    time.Time `json:"datetime"`
}

// ScoutPassSummary describes the outcome of one scout pass
type ScoutPassSummary struct {
	StartedAt   time.Time `json:"started_at"`
	Duration    string    `json:"duration"`
	Evaluated   int       `json:"evaluated"`
	Jumps       []string  `json:"jumps"`
	Rebalanced  string    `json:"rebalanced,omitempty"`
	Aborted     bool      `json:"aborted"`
	AbortReason string    `json:"abort_reason,omitempty"`
}
