package memory

import (
	"context"
	"sync"

	"recertify-fraud-service/internal/domain"
)

// FraudLogStore keeps detections per user in memory (useful for tests/demos).
type FraudLogStore struct {
	mu      sync.RWMutex
	records map[string][]domain.FraudDetection
}

func NewFraudLogStore() *FraudLogStore {
	return &FraudLogStore{records: make(map[string][]domain.FraudDetection)}
}

func (s *FraudLogStore) Append(_ context.Context, record domain.FraudDetection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.UserID] = append(s.records[record.UserID], record)
	return nil
}

// ListByUser returns the newest detections first.
func (s *FraudLogStore) ListByUser(_ context.Context, userID string, limit int) ([]domain.FraudDetection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.records[userID]
	n := len(records)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]domain.FraudDetection, 0, n)
	for i := len(records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, records[i])
	}
	return out, nil
}
