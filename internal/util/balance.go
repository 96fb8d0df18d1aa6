package util

import (
	"bridgebot/backend/pkg/logger"
)

// ValidateAndNormalizeBalance validates and normalizes a single balance value
func ValidateAndNormalizeBalance(
	balance float64,
	currency string,
	bridge string,
	log *logger.Logger,
) float64 {
	if balance < 0 {
		log.Warnf("Balance for %s was negative (%.8f), resetting to 0", currency, balance)
		return 0
	}

	maxReasonable := MaxReasonableCoinAmount
	if currency == bridge {
		maxReasonable = MaxReasonableBridgeBalance
	}
	if balance > maxReasonable {
		log.Errorf("Balance for %s is unreasonably large (%.8f), resetting to 0", currency, balance)
		return 0
	}

	// Floating point dust left over from coin sells
	if currency != bridge && balance > 0 && balance < TinyBalanceThreshold {
		log.Debugf("Cleaning up tiny %s balance (%.18f) - setting to 0", currency, balance)
		return 0
	}

	return balance
}

// ValidateAndNormalizeBalances normalizes every entry of a balances map in place
func ValidateAndNormalizeBalances(
	balances map[string]float64,
	bridge string,
	log *logger.Logger,
) map[string]float64 {
	if balances == nil {
		return make(map[string]float64)
	}
	for currency, amount := range balances {
		balances[currency] = ValidateAndNormalizeBalance(amount, currency, bridge, log)
	}
	return balances
}
