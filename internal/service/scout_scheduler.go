package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bridgebot/backend/internal/model"
	"bridgebot/backend/pkg/logger"
)

// ErrPassInProgress is returned when a scout pass is already running
var ErrPassInProgress = errors.New("scout pass already in progress")

// ErrThresholdsNotReady is returned when a pass is refused because trade
// thresholds have never been initialized successfully
var ErrThresholdsNotReady = errors.New("trade thresholds not initialized")

// ScoutEngine is the work the scheduler drives
type ScoutEngine interface {
	InitializeTradeThresholds(ctx context.Context) (int, error)
	PendingThresholds(ctx context.Context) (int, error)
	ScoutPass(ctx context.Context) (*model.ScoutPassSummary, error)
	UpdateValues(ctx context.Context) ([]model.CoinValue, error)
}

// ScoutScheduler runs one scout pass per tick and a valuation on its own
// cadence. At most one unit of work runs at a time; ticks and manual
// triggers that find it busy are skipped. No pass runs before threshold
// initialization has succeeded once.
type ScoutScheduler struct {
	engine        ScoutEngine
	scoutInterval time.Duration
	valueInterval time.Duration

	running     sync.Mutex
	initialized bool // guarded by running
	log         *logger.Logger
}

func NewScoutScheduler(engine ScoutEngine, scoutInterval, valueInterval time.Duration) *ScoutScheduler {
	return &ScoutScheduler{
		engine:        engine,
		scoutInterval: scoutInterval,
		valueInterval: valueInterval,
		log:           logger.GetLogger().Component("scheduler"),
	}
}

// Start initializes missing thresholds and then scouts until ctx is
// cancelled. A failed initialization is retried on every scout tick.
func (s *ScoutScheduler) Start(ctx context.Context) {
	if n, err := s.InitializeThresholds(ctx); err != nil {
		s.log.Error("Failed to initialize trade thresholds", err)
	} else {
		s.log.Infof("Initialized %d trade thresholds", n)
	}

	scoutTicker := time.NewTicker(s.scoutInterval)
	defer scoutTicker.Stop()

	var valueTick <-chan time.Time
	if s.valueInterval > 0 {
		valueTicker := time.NewTicker(s.valueInterval)
		defer valueTicker.Stop()
		valueTick = valueTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Scout scheduler stopped")
			return

		case <-scoutTicker.C:
			if _, err := s.RunPass(ctx); err != nil && !errors.Is(err, ErrPassInProgress) {
				s.log.Warnf("Scout pass ended with error: %v", err)
			}

		case <-valueTick:
			if _, err := s.UpdateValues(ctx); err != nil && !errors.Is(err, ErrPassInProgress) {
				s.log.Warnf("Value snapshot failed: %v", err)
			}
		}
	}
}

// RunPass runs one scout pass unless one is already running. Unset
// thresholds between enabled coins are initialized first.
func (s *ScoutScheduler) RunPass(ctx context.Context) (*model.ScoutPassSummary, error) {
	if !s.running.TryLock() {
		return nil, ErrPassInProgress
	}
	defer s.running.Unlock()

	if err := s.ensureThresholds(ctx); err != nil {
		return nil, err
	}
	return s.engine.ScoutPass(ctx)
}

// InitializeThresholds bootstraps unset ratios unless a pass is running
func (s *ScoutScheduler) InitializeThresholds(ctx context.Context) (int, error) {
	if !s.running.TryLock() {
		return 0, ErrPassInProgress
	}
	defer s.running.Unlock()

	return s.initialize(ctx)
}

func (s *ScoutScheduler) initialize(ctx context.Context) (int, error) {
	n, err := s.engine.InitializeTradeThresholds(ctx)
	if err != nil {
		return n, err
	}
	s.initialized = true
	return n, nil
}

// ensureThresholds must be called with running held
func (s *ScoutScheduler) ensureThresholds(ctx context.Context) error {
	if !s.initialized {
		if _, err := s.initialize(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrThresholdsNotReady, err)
		}
		return nil
	}

	pending, err := s.engine.PendingThresholds(ctx)
	if err != nil {
		s.log.Warnf("Failed to count unset thresholds: %v", err)
		return nil
	}
	if pending == 0 {
		return nil
	}
	if n, err := s.engine.InitializeTradeThresholds(ctx); err != nil {
		s.log.Warnf("Failed to initialize %d pending thresholds: %v", pending, err)
	} else if n > 0 {
		s.log.Infof("Initialized %d of %d pending thresholds", n, pending)
	}
	return nil
}

// UpdateValues records holding valuations unless a pass is running
func (s *ScoutScheduler) UpdateValues(ctx context.Context) ([]model.CoinValue, error) {
	if !s.running.TryLock() {
		return nil, ErrPassInProgress
	}
	defer s.running.Unlock()

	return s.engine.UpdateValues(ctx)
}
