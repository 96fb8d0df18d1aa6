package util

// Trading safety thresholds used to detect corrupted balances and orders

const (
	// MaxReasonableCoinAmount is the largest coin balance accepted as valid
	MaxReasonableCoinAmount = 1000000000.0

	// MaxReasonableBridgeBalance is the largest bridge balance accepted as valid (100 billion IDR)
	MaxReasonableBridgeBalance = 100000000000.0

	// TinyBalanceThreshold is the threshold below which coin balances are dust
	TinyBalanceThreshold = 0.00000001
)
