package market

import (
	"context"
	"fmt"
	"sync"

	"bridgebot/backend/pkg/indodax"
	"bridgebot/backend/pkg/logger"
	"bridgebot/backend/pkg/redis"
)

// PairSource lists the trading rules of every market
type PairSource interface {
	GetPairs(ctx context.Context) ([]indodax.Pair, error)
}

// PairMetadataService keeps the trading rules of every Indodax market in
// memory, backed by a Redis cache so restarts do not need the exchange
type PairMetadataService struct {
	redisClient *redis.Client
	source      PairSource

	pairs sync.Map // Key: pairID ("btcidr"), Value: indodax.Pair
	mu    sync.Mutex
}

func NewPairMetadataService(redisClient *redis.Client, source PairSource) *PairMetadataService {
	return &PairMetadataService{
		redisClient: redisClient,
		source:      source,
	}
}

// Start loads cached metadata, syncing from the exchange when the cache is empty
func (s *PairMetadataService) Start(ctx context.Context) error {
	if s.LoadMetadata(ctx) {
		return nil
	}
	logger.Infof("Metadata cache empty, performing initial sync from Indodax...")
	return s.RefreshMetadata(ctx)
}

// RefreshMetadata fetches pairs from Indodax and saves them to Redis
func (s *PairMetadataService) RefreshMetadata(ctx context.Context) error {
	pairs, err := s.source.GetPairs(ctx)
	if err != nil {
		logger.Errorf("Failed to refresh pairs: %v", err)
		return err
	}

	s.store(pairs)

	if err := s.redisClient.SetJSONWithRetry(ctx, redis.CachePairsKey(), pairs, 0, 3); err != nil {
		logger.Warnf("Failed to cache pairs: %v", err)
	}
	logger.Infof("Successfully refreshed %d pairs from Indodax", len(pairs))
	return nil
}

// LoadMetadata loads pairs from Redis. Returns true if any were found.
func (s *PairMetadataService) LoadMetadata(ctx context.Context) bool {
	var pairs []indodax.Pair
	if err := s.redisClient.GetJSON(ctx, redis.CachePairsKey(), &pairs); err != nil || len(pairs) == 0 {
		return false
	}

	s.store(pairs)
	logger.Infof("Loaded %d pairs from Redis", len(pairs))
	return true
}

// GetPairInfo returns metadata for a pair
func (s *PairMetadataService) GetPairInfo(pairID string) (indodax.Pair, bool) {
	val, ok := s.pairs.Load(pairID)
	if !ok {
		return indodax.Pair{}, false
	}
	return val.(indodax.Pair), true
}

// MinNotional returns the minimum order value of coin/bridge in bridge
// units. An unknown pair triggers one refresh before failing.
func (s *PairMetadataService) MinNotional(ctx context.Context, coin, bridge string) (float64, error) {
	pair, err := s.Pair(ctx, coin+bridge)
	if err != nil {
		return 0, err
	}
	return pair.TradeMinBaseCurrency.Float64(), nil
}

// Pair returns metadata for pairID, refreshing once if it is unknown
func (s *PairMetadataService) Pair(ctx context.Context, pairID string) (indodax.Pair, error) {
	if p, ok := s.GetPairInfo(pairID); ok {
		return p, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.GetPairInfo(pairID); ok {
		return p, nil
	}
	if err := s.RefreshMetadata(ctx); err != nil {
		return indodax.Pair{}, err
	}
	if p, ok := s.GetPairInfo(pairID); ok {
		return p, nil
	}
	return indodax.Pair{}, fmt.Errorf("invalid pair %s", pairID)
}

func (s *PairMetadataService) store(pairs []indodax.Pair) {
	for _, p := range pairs {
		s.pairs.Store(p.ID, p)
	}
}
