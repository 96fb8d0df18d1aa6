package util

import (
	"bridgebot/backend/pkg/indodax"
)

// GetVolumePrecision returns the number of decimals a coin amount of the pair
// is sent with: VolumePrecision, else PriceRound, else 8
func GetVolumePrecision(pairInfo indodax.Pair) int {
	switch {
	case pairInfo.VolumePrecision > 0:
		return pairInfo.VolumePrecision
	case pairInfo.PriceRound > 0:
		return pairInfo.PriceRound
	}
	return 8
}

// GetQuotePrecision returns the number of decimals a bridge amount is sent
// with. Rupiah amounts are whole numbers.
func GetQuotePrecision(bridge string) int {
	if bridge == "idr" {
		return 0
	}
	return 8
}
