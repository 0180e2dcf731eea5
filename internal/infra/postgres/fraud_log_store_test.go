package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"recertify-fraud-service/internal/domain"
)

func TestRowMappingKeepsFlagsAndSignals(t *testing.T) {
	det := domain.FraudDetection{
		ID:        "d1",
		UserID:    "u1",
		SessionID: "s1",
		QuizID:    "quiz-1",
		RiskScore: 55,
		Flags: domain.FraudFlags{
			FastCompletion:    true,
			SuspiciousPattern: true,
		},
		Signals:                []string{"fast_completion", "retry_volume"},
		TimeSpent:              24,
		AverageTimePerQuestion: 8,
		RetryCount:             7,
		Timestamp:              time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	row := toRow(det)
	assert.Equal(t, "u1", row.UserID)
	assert.True(t, row.FastCompletion)
	assert.False(t, row.IdenticalRetries)
	assert.Equal(t, det.Timestamp, row.CreatedAt)

	assert.Equal(t, det, fromRow(row))
}

func TestToRowNeverStoresNullSignals(t *testing.T) {
	row := toRow(domain.FraudDetection{ID: "d1"})
	assert.NotNil(t, row.Signals)
	assert.Empty(t, row.Signals)
}
