package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"recertify-fraud-service/internal/domain"
)

type fraudDetectionRow struct {
	bun.BaseModel `bun:"table:fraud_detections"`

	ID                     string    `bun:"id,pk"`
	UserID                 string    `bun:"user_id,notnull"`
	SessionID              string    `bun:"session_id,notnull"`
	QuizID                 string    `bun:"quiz_id,notnull"`
	RiskScore              int       `bun:"risk_score,notnull"`
	FastCompletion         bool      `bun:"fast_completion,notnull"`
	IdenticalRetries       bool      `bun:"identical_retries,notnull"`
	ImpossibleAccuracy     bool      `bun:"impossible_accuracy,notnull"`
	SuspiciousPattern      bool      `bun:"suspicious_pattern,notnull"`
	Signals                []string  `bun:"signals,array"`
	TimeSpent              float64   `bun:"time_spent,notnull"`
	AverageTimePerQuestion float64   `bun:"avg_time_per_question,notnull"`
	RetryCount             int       `bun:"retry_count,notnull"`
	CreatedAt              time.Time `bun:"created_at,notnull"`
}

// FraudLogStore is the durable fraud log, one row per detection.
type FraudLogStore struct {
	db *bun.DB
}

func NewFraudLogStore(db *bun.DB) *FraudLogStore {
	return &FraudLogStore{db: db}
}

func (s *FraudLogStore) Append(ctx context.Context, record domain.FraudDetection) error {
	row := toRow(record)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert fraud detection: %w", err)
	}
	return nil
}

func (s *FraudLogStore) ListByUser(ctx context.Context, userID string, limit int) ([]domain.FraudDetection, error) {
	var rows []fraudDetectionRow
	q := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list fraud detections: %w", err)
	}
	out := make([]domain.FraudDetection, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out, nil
}

func toRow(d domain.FraudDetection) fraudDetectionRow {
	signals := d.Signals
	if signals == nil {
		signals = []string{}
	}
	return fraudDetectionRow{
		ID:                     d.ID,
		UserID:                 d.UserID,
		SessionID:              d.SessionID,
		QuizID:                 d.QuizID,
		RiskScore:              d.RiskScore,
		FastCompletion:         d.Flags.FastCompletion,
		IdenticalRetries:       d.Flags.IdenticalRetries,
		ImpossibleAccuracy:     d.Flags.ImpossibleAccuracy,
		SuspiciousPattern:      d.Flags.SuspiciousPattern,
		Signals:                signals,
		TimeSpent:              d.TimeSpent,
		AverageTimePerQuestion: d.AverageTimePerQuestion,
		RetryCount:             d.RetryCount,
		CreatedAt:              d.Timestamp,
	}
}

func fromRow(r fraudDetectionRow) domain.FraudDetection {
	return domain.FraudDetection{
		ID:        r.ID,
		UserID:    r.UserID,
		SessionID: r.SessionID,
		QuizID:    r.QuizID,
		RiskScore: r.RiskScore,
		Flags: domain.FraudFlags{
			FastCompletion:     r.FastCompletion,
			IdenticalRetries:   r.IdenticalRetries,
			ImpossibleAccuracy: r.ImpossibleAccuracy,
			SuspiciousPattern:  r.SuspiciousPattern,
		},
		Signals:                r.Signals,
		TimeSpent:              r.TimeSpent,
		AverageTimePerQuestion: r.AverageTimePerQuestion,
		RetryCount:             r.RetryCount,
		Timestamp:              r.CreatedAt,
	}
}
