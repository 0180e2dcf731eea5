package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"recertify-fraud-service/internal/domain"
)

// FraudLogStore keeps the newest detections per user at the head of a capped list.
type FraudLogStore struct {
	client    *redis.Client
	maxLen    int64
	retention time.Duration
}

func NewFraudLogStore(client *redis.Client, maxLen int, retention time.Duration) *FraudLogStore {
	return &FraudLogStore{
		client:    client,
		maxLen:    int64(maxLen),
		retention: retention,
	}
}

func (s *FraudLogStore) Append(ctx context.Context, record domain.FraudDetection) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode detection: %w", err)
	}
	key := s.key(record.UserID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	if s.maxLen > 0 {
		pipe.LTrim(ctx, key, 0, s.maxLen-1)
	}
	if s.retention > 0 {
		pipe.Expire(ctx, key, s.retention)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append detection: %w", err)
	}
	return nil
}

func (s *FraudLogStore) ListByUser(ctx context.Context, userID string, limit int) ([]domain.FraudDetection, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	raw, err := s.client.LRange(ctx, s.key(userID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("read detections: %w", err)
	}
	out := make([]domain.FraudDetection, 0, len(raw))
	for _, item := range raw {
		var det domain.FraudDetection
		if err := json.Unmarshal([]byte(item), &det); err != nil {
			return nil, fmt.Errorf("decode detection: %w", err)
		}
		out = append(out, det)
	}
	return out, nil
}

func (s *FraudLogStore) key(userID string) string {
	return "fraud:log:" + userID
}
