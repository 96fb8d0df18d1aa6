package service

import (
	"context"

	"bridgebot/backend/pkg/indodax"
)

// TradeClient defines the interface for executing trades
type TradeClient interface {
	GetInfo(ctx context.Context) (*indodax.GetInfoReturn, error)
	Trade(ctx context.Context, req indodax.TradeRequest) (*indodax.TradeReturn, error)
}
