package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"recertify-fraud-service/internal/domain"
)

// SubmissionHistoryStore abstracts where a user's prior submissions live (in-memory, Redis, etc).
type SubmissionHistoryStore interface {
	LoadRecent(ctx context.Context, userID string, limit int) ([]domain.QuizSubmission, error)
	Append(ctx context.Context, sub domain.QuizSubmission) error
}

// FraudLogStore persists scored detections for later review.
type FraudLogStore interface {
	Append(ctx context.Context, record domain.FraudDetection) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.FraudDetection, error)
}

// QuizRepository loads quiz answer keys (from cache/backing store).
type QuizRepository interface {
	GetAnswerKey(ctx context.Context, quizID string) (domain.AnswerKey, error)
}

// EventPublisher announces blocked submissions to downstream consumers.
type EventPublisher interface {
	PublishDetection(ctx context.Context, result domain.FraudCheckResult) error
}

// MetricsRecorder receives check outcomes and store failures.
type MetricsRecorder interface {
	ObserveCheck(result domain.FraudCheckResult)
	ObserveStoreFailure(store string)
}

// FraudService is the single entry point for fraud checks. The HTTP, WebSocket
// and queue worker paths all go through Check.
type FraudService struct {
	history      SubmissionHistoryStore
	logs         FraudLogStore
	quizzes      QuizRepository
	publisher    EventPublisher
	metrics      MetricsRecorder
	scorer       *Scorer
	logger       *slog.Logger
	now          func() time.Time
	historyLimit int
}

// Option customizes a FraudService.
type Option func(*FraudService)

// WithQuizRepository enables the accuracy heuristic.
func WithQuizRepository(quizzes QuizRepository) Option {
	return func(s *FraudService) { s.quizzes = quizzes }
}

func WithPublisher(p EventPublisher) Option {
	return func(s *FraudService) { s.publisher = p }
}

func WithMetrics(m MetricsRecorder) Option {
	return func(s *FraudService) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *FraudService) { s.logger = l }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *FraudService) { s.now = now }
}

// WithHistoryLimit caps how many prior submissions are loaded per check.
func WithHistoryLimit(n int) Option {
	return func(s *FraudService) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

func NewFraudService(history SubmissionHistoryStore, logs FraudLogStore, scorer *Scorer, opts ...Option) *FraudService {
	s := &FraudService{
		history:      history,
		logs:         logs,
		scorer:       scorer,
		logger:       slog.Default(),
		now:          time.Now,
		historyLimit: 200,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Thresholds returns the tuning shared by the scorer and the decision policy.
func (s *FraudService) Thresholds() domain.Thresholds {
	return s.scorer.Thresholds()
}

// Check validates, scores and records one submission. Only validation errors are returned;
// store and publisher failures are logged and the check still succeeds.
func (s *FraudService) Check(ctx context.Context, sub domain.QuizSubmission) (domain.FraudCheckResult, error) {
	if err := ValidateSubmission(sub); err != nil {
		return domain.FraudCheckResult{}, err
	}
	now := s.now()
	if sub.SessionID == "" {
		sub.SessionID = domain.DefaultSessionID(now)
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = now
	}
	log := s.logger.With(slog.String("user_id", sub.UserID), slog.String("quiz_id", sub.QuizID))

	history, err := s.loadHistory(ctx, sub.UserID)
	if err != nil {
		log.Warn("history unavailable, scoring without it", slog.String("error", err.Error()))
		s.storeFailure("history_read")
		history = nil
	}

	key := s.answerKey(ctx, sub.QuizID, log)

	det := s.scorer.Score(sub, history, key)
	det.Timestamp = now
	result := Decide(det, s.scorer.Thresholds(), now)

	if err := s.history.Append(ctx, sub); err != nil {
		log.Warn("failed to append submission history",
			slog.String("error", fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err).Error()))
		s.storeFailure("history_write")
	}
	if err := s.logs.Append(ctx, det); err != nil {
		log.Warn("failed to persist fraud detection",
			slog.String("detection_id", det.ID),
			slog.String("error", fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err).Error()))
		s.storeFailure("fraud_log")
	}
	if result.Blocked && s.publisher != nil {
		if err := s.publisher.PublishDetection(ctx, result); err != nil {
			log.Warn("failed to publish fraud event", slog.String("error", err.Error()))
			s.storeFailure("publisher")
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveCheck(result)
	}

	log.Info("fraud check completed",
		slog.Int("risk_score", det.RiskScore),
		slog.String("warning_level", string(result.WarningLevel)),
		slog.Bool("blocked", result.Blocked),
	)
	return result, nil
}

// History returns the stored detections for a user and a summary of them.
func (s *FraudService) History(ctx context.Context, userID string, limit int) (domain.UserFraudHistory, error) {
	if userID == "" {
		return domain.UserFraudHistory{}, &domain.ValidationError{Missing: []string{"userId"}}
	}
	records, err := s.logs.ListByUser(ctx, userID, limit)
	if err != nil {
		return domain.UserFraudHistory{}, fmt.Errorf("list fraud history: %w", err)
	}
	if records == nil {
		records = []domain.FraudDetection{}
	}
	return domain.UserFraudHistory{
		UserID:       userID,
		FraudHistory: records,
		RiskProfile:  BuildRiskProfile(records, s.scorer.Thresholds()),
	}, nil
}

func (s *FraudService) loadHistory(ctx context.Context, userID string) ([]domain.QuizSubmission, error) {
	history, err := s.history.LoadRecent(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrHistoryUnavailable, err)
	}
	return history, nil
}

func (s *FraudService) answerKey(ctx context.Context, quizID string, log *slog.Logger) *domain.AnswerKey {
	if s.quizzes == nil {
		return nil
	}
	key, err := s.quizzes.GetAnswerKey(ctx, quizID)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			log.Debug("no answer key for quiz, skipping accuracy check")
		} else {
			log.Warn("failed to load answer key", slog.String("error", err.Error()))
			s.storeFailure("quiz")
		}
		return nil
	}
	return &key
}

func (s *FraudService) storeFailure(store string) {
	if s.metrics != nil {
		s.metrics.ObserveStoreFailure(store)
	}
}
