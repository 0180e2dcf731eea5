package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"recertify-fraud-service/internal/app"
	"recertify-fraud-service/internal/domain"
)

// TypeFraudCheck is the asynq task type for queued fraud checks.
const TypeFraudCheck = "fraud:check"

// NewFraudCheckTask wraps a submission in a task payload.
func NewFraudCheckTask(sub domain.QuizSubmission) (*asynq.Task, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("marshal fraud check payload: %w", err)
	}
	return asynq.NewTask(TypeFraudCheck, payload), nil
}

// Enqueuer puts fraud checks on the queue for the worker process.
type Enqueuer struct {
	client *asynq.Client
	queue  string
}

func NewEnqueuer(client *asynq.Client, queue string) *Enqueuer {
	return &Enqueuer{client: client, queue: queue}
}

// Enqueue validates sub up front so callers get the same 400 as the synchronous path.
func (e *Enqueuer) Enqueue(ctx context.Context, sub domain.QuizSubmission) (string, error) {
	if err := app.ValidateSubmission(sub); err != nil {
		return "", err
	}
	task, err := NewFraudCheckTask(sub)
	if err != nil {
		return "", err
	}
	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(e.queue),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue fraud check: %w", err)
	}
	return info.ID, nil
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// Handler runs queued fraud checks through the same FraudService as the HTTP path.
type Handler struct {
	service *app.FraudService
	logger  *slog.Logger
}

func NewHandler(service *app.FraudService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var sub domain.QuizSubmission
	if err := json.Unmarshal(t.Payload(), &sub); err != nil {
		return fmt.Errorf("decode fraud check payload: %v: %w", err, asynq.SkipRetry)
	}
	result, err := h.service.Check(ctx, sub)
	if errors.Is(err, domain.ErrInvalidSubmission) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}
	if w := t.ResultWriter(); w != nil {
		if data, err := json.Marshal(result); err == nil {
			_, _ = w.Write(data)
		}
	}
	h.logger.Debug("queued fraud check processed",
		slog.String("user_id", result.FraudDetection.UserID),
		slog.Int("risk_score", result.FraudDetection.RiskScore),
	)
	return nil
}

// NewServeMux routes fraud check tasks to h.
func NewServeMux(h *Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeFraudCheck, h)
	return mux
}

// NewServer builds an asynq server consuming queue with the given concurrency.
func NewServer(opt asynq.RedisConnOpt, queue string, concurrency int, logger *slog.Logger) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 10
	}
	return asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("fraud check task failed",
				slog.String("type", task.Type()),
				slog.String("error", err.Error()),
			)
		}),
		Logger: &slogAdapter{logger: logger},
	})
}

// slogAdapter satisfies asynq.Logger.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Debug(args ...interface{}) { a.logger.Debug(fmt.Sprint(args...)) }
func (a *slogAdapter) Info(args ...interface{})  { a.logger.Info(fmt.Sprint(args...)) }
func (a *slogAdapter) Warn(args ...interface{})  { a.logger.Warn(fmt.Sprint(args...)) }
func (a *slogAdapter) Error(args ...interface{}) { a.logger.Error(fmt.Sprint(args...)) }
func (a *slogAdapter) Fatal(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
