package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"recertify-fraud-service/internal/domain"
)

// EventSubmissionBlocked is the event type header value for blocked submissions.
const EventSubmissionBlocked = "fraud.submission_blocked"

// SubmissionBlocked is the payload published when a submission crosses the block threshold.
type SubmissionBlocked struct {
	DetectionID  string              `json:"detectionId"`
	UserID       string              `json:"userId"`
	QuizID       string              `json:"quizId"`
	SessionID    string              `json:"sessionId"`
	RiskScore    int                 `json:"riskScore"`
	WarningLevel domain.WarningLevel `json:"warningLevel"`
	Flags        domain.FraudFlags   `json:"flags"`
	Signals      []string            `json:"signals"`
	OccurredAt   time.Time           `json:"occurredAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes fraud events to a Kafka topic, keyed by user so a user's events stay ordered.
type Publisher struct {
	writer messageWriter
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafkago.RequireAll,
		},
	}
}

func (p *Publisher) PublishDetection(ctx context.Context, result domain.FraudCheckResult) error {
	msg, err := buildMessage(result)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func buildMessage(result domain.FraudCheckResult) (kafkago.Message, error) {
	det := result.FraudDetection
	payload, err := json.Marshal(SubmissionBlocked{
		DetectionID:  det.ID,
		UserID:       det.UserID,
		QuizID:       det.QuizID,
		SessionID:    det.SessionID,
		RiskScore:    det.RiskScore,
		WarningLevel: result.WarningLevel,
		Flags:        det.Flags,
		Signals:      det.Signals,
		OccurredAt:   result.Timestamp,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("marshal event %s: %w", EventSubmissionBlocked, err)
	}
	return kafkago.Message{
		Key:   []byte(det.UserID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(EventSubmissionBlocked)},
		},
	}, nil
}
