package util

import (
	"fmt"

	"bridgebot/backend/pkg/indodax"
	"bridgebot/backend/pkg/logger"
)

// OrderValidationResult contains validation results
type OrderValidationResult struct {
	Valid      bool
	Amount     float64
	OrderValue float64
	Reason     string
}

// ValidateOrderAmount floors amount to the pair's volume precision and checks
// it against the exchange minimums (coin amount and bridge notional)
func ValidateOrderAmount(
	amount float64,
	price float64,
	pairInfo indodax.Pair,
	log *logger.Logger,
) OrderValidationResult {
	roundedAmount := FloorToPrecision(amount, GetVolumePrecision(pairInfo))
	orderValue := MulFloat(roundedAmount, price)

	if roundedAmount <= 0 {
		return OrderValidationResult{Reason: "amount rounds to zero"}
	}

	if minCoin := pairInfo.TradeMinTradedCurrency.Float64(); roundedAmount < minCoin {
		reason := fmt.Sprintf("coin amount too small - %.8f < minimum %.8f", roundedAmount, minCoin)
		log.Debugf("%s: %s", pairInfo.ID, reason)
		return OrderValidationResult{Reason: reason}
	}

	if minBase := pairInfo.TradeMinBaseCurrency.Float64(); orderValue < minBase {
		reason := fmt.Sprintf("order value too small - %.2f < minimum %.2f %s",
			orderValue, minBase, pairInfo.BaseCurrency)
		log.Debugf("%s: %s (amount=%.8f * price=%.8f)", pairInfo.ID, reason, roundedAmount, price)
		return OrderValidationResult{Reason: reason}
	}

	return OrderValidationResult{
		Valid:      true,
		Amount:     roundedAmount,
		OrderValue: orderValue,
	}
}
