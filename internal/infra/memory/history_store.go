package memory

import (
	"context"
	"sync"

	"recertify-fraud-service/internal/domain"
)

// HistoryStore is an in-memory implementation of app.SubmissionHistoryStore.
// Entries are kept in append order per user.
type HistoryStore struct {
	mu      sync.RWMutex
	maxLen  int
	history map[string][]domain.QuizSubmission
}

// NewHistoryStore keeps at most maxLen submissions per user; zero means unbounded.
func NewHistoryStore(maxLen int) *HistoryStore {
	return &HistoryStore{
		maxLen:  maxLen,
		history: make(map[string][]domain.QuizSubmission),
	}
}

func (s *HistoryStore) LoadRecent(_ context.Context, userID string, limit int) ([]domain.QuizSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[userID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]domain.QuizSubmission, len(entries))
	for i, e := range entries {
		out[i] = cloneSubmission(e)
	}
	return out, nil
}

func (s *HistoryStore) Append(_ context.Context, sub domain.QuizSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := append(s.history[sub.UserID], cloneSubmission(sub))
	if s.maxLen > 0 && len(entries) > s.maxLen {
		entries = entries[len(entries)-s.maxLen:]
	}
	s.history[sub.UserID] = entries
	return nil
}

func cloneSubmission(sub domain.QuizSubmission) domain.QuizSubmission {
	sub.Answers = append([]int(nil), sub.Answers...)
	return sub
}
