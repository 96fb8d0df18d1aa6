package redis

import "fmt"

// Redis key patterns for the application
// Following the pattern: prefix:entity:id or prefix:entity:id:attribute

var keyPrefix = "bridgebot"

// InitKeys sets the namespace every key is created under
func InitKeys(prefix string) {
	if prefix != "" {
		keyPrefix = prefix
	}
}

func k(format string, args ...interface{}) string {
	return keyPrefix + ":" + fmt.Sprintf(format, args...)
}

// Coin universe

// CoinKey holds the coin hash (symbol, enabled)
func CoinKey(symbol string) string {
	return k("coin:%s", symbol)
}

// AllCoinsKey is a sorted set of coin symbols scored by registration order
func AllCoinsKey() string {
	return k("coins:all")
}

// Ratio store

// RatiosKey is a hash of "from:to" -> ratio; a missing field means unset
func RatiosKey() string {
	return k("ratios")
}

// RatioField is the field name of a pair inside RatiosKey
func RatioField(from, to string) string {
	return from + ":" + to
}

// PairsFromKey is the set of "to" symbols paired with from
func PairsFromKey(from string) string {
	return k("pairs_from:%s", from)
}

// PairsToKey is the set of "from" symbols paired with to
func PairsToKey(to string) string {
	return k("pairs_to:%s", to)
}

// History

func ScoutHistoryKey() string {
	return k("scout_history")
}

func JumpKey(jumpID string) string {
	return k("jump:%s", jumpID)
}

func JumpsKey() string {
	return k("jumps")
}

func CoinValuesKey(symbol string) string {
	return k("coin_values:%s", symbol)
}

// Paper trading balances
func PaperBalanceKey() string {
	return k("paper_balances")
}

// Rate limiting keys
func RateLimitKey(identifier, action string) string {
	return k("rate_limit:%s:%s", action, identifier)
}

// Cache keys
func CachePairsKey() string {
	return k("cache:pairs")
}

// Pub/Sub channels

// EventsChannel carries WSMessage envelopes for the operator stream
func EventsChannel() string {
	return k("channel:events")
}
