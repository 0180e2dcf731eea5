package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"recertify-fraud-service/internal/domain"
)

// HistoryStore keeps each user's submissions as a capped JSON list:
//
//	RPUSH fraud:history:{userID} {submission}
//
// The list expires after the retention window unless the user keeps submitting.
type HistoryStore struct {
	client    *redis.Client
	maxLen    int64
	retention time.Duration
}

func NewHistoryStore(client *redis.Client, maxLen int, retention time.Duration) *HistoryStore {
	return &HistoryStore{
		client:    client,
		maxLen:    int64(maxLen),
		retention: retention,
	}
}

func (s *HistoryStore) LoadRecent(ctx context.Context, userID string, limit int) ([]domain.QuizSubmission, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := s.client.LRange(ctx, s.key(userID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	out := make([]domain.QuizSubmission, 0, len(raw))
	for _, item := range raw {
		var sub domain.QuizSubmission
		if err := json.Unmarshal([]byte(item), &sub); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *HistoryStore) Append(ctx context.Context, sub domain.QuizSubmission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	key := s.key(sub.UserID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.maxLen > 0 {
		pipe.LTrim(ctx, key, -s.maxLen, -1)
	}
	if s.retention > 0 {
		pipe.Expire(ctx, key, s.retention)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *HistoryStore) key(userID string) string {
	return "fraud:history:" + userID
}
