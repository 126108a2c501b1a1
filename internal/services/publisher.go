package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"byamn-backend/internal/models"
)

// ProgressPublisher fans player events out over Redis pub/sub; the
// websocket hub relays them to the user's open connections. Fire and
// forget: a student with no page open just misses the push.
type ProgressPublisher struct {
	redis *redis.Client
}

func NewProgressPublisher(redisClient *redis.Client) *ProgressPublisher {
	return &ProgressPublisher{redis: redisClient}
}

func (p *ProgressPublisher) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	if p.redis == nil {
		return
	}
	data, _ := json.Marshal(msg)
	p.redis.Publish(ctx, fmt.Sprintf("user_updates:%s", userID.String()), string(data))
}
