package service

import (
	"context"
	"encoding/json"

	"bridgebot/backend/internal/model"
	"bridgebot/backend/pkg/logger"
	"bridgebot/backend/pkg/redis"
)

// NotificationService publishes engine events to Redis for WebSocket broadcasting
type NotificationService struct {
	redis *redis.Client
	log   *logger.Logger
}

func NewNotificationService(redis *redis.Client) *NotificationService {
	return &NotificationService{
		redis: redis,
		log:   logger.GetLogger(),
	}
}

// Broadcast sends a message to every connected operator
func (s *NotificationService) Broadcast(ctx context.Context, msgType model.WSMessageType, payload interface{}) {
	msg := model.WSMessage{
		Type:    msgType,
		Payload: payload,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Errorf("Failed to marshal broadcast notification: %v", err)
		return
	}

	channel := redis.EventsChannel()
	if err := s.redis.Publish(ctx, channel, data); err != nil {
		s.log.Errorf("Failed to publish notification to channel %s: %v", channel, err)
	}
}

// NotifyScoutPass publishes the outcome of a scout pass
func (s *NotificationService) NotifyScoutPass(ctx context.Context, summary *model.ScoutPassSummary) {
	s.Broadcast(ctx, model.MessageTypeScoutPass, summary)
}

// NotifyJump publishes a jump state change
func (s *NotificationService) NotifyJump(ctx context.Context, jump *model.Jump) {
	s.Broadcast(ctx, model.MessageTypeJump, jump)
}

// NotifyCoinValues publishes the latest holding valuations
func (s *NotificationService) NotifyCoinValues(ctx context.Context, values []model.CoinValue) {
	s.Broadcast(ctx, model.MessageTypeCoinValues, values)
}
