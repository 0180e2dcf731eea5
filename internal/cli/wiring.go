package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"recertify-fraud-service/internal/app"
	"recertify-fraud-service/internal/config"
	"recertify-fraud-service/internal/domain"
	"recertify-fraud-service/internal/infra/kafka"
	"recertify-fraud-service/internal/infra/memory"
	pgstore "recertify-fraud-service/internal/infra/postgres"
	redisstore "recertify-fraud-service/internal/infra/redis"
	"recertify-fraud-service/internal/logging"
	"recertify-fraud-service/internal/metrics"
)

// components holds everything built from config; close releases connections.
type components struct {
	cfg     config.Config
	logger  *slog.Logger
	service *app.FraudService
	metrics *metrics.Recorder
	redis   *redis.Client
	closers []func()
}

func (c *components) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// buildComponents picks Redis/Postgres backed stores when configured and falls back to memory.
func buildComponents(ctx context.Context, cfg config.Config) (*components, error) {
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	c := &components{cfg: cfg, logger: logger, metrics: metrics.NewRecorder()}

	if cfg.Redis.Addr != "" {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		c.closers = append(c.closers, func() { _ = c.redis.Close() })
	}

	var pool *pgxpool.Pool
	var db *bun.DB
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			c.close()
			return nil, err
		}
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			c.close()
			return nil, err
		}
		c.closers = append(c.closers, pool.Close)
		db = openBunDB(cfg.Postgres.URL)
		c.closers = append(c.closers, func() { _ = db.Close() })
	}

	retention := cfg.HistoryRetention()
	limit := cfg.HistoryLimit()

	var history app.SubmissionHistoryStore
	if c.redis != nil {
		history = redisstore.NewHistoryStore(c.redis, limit, retention)
	} else {
		history = memory.NewHistoryStore(limit)
	}

	var logs app.FraudLogStore
	switch {
	case db != nil:
		logs = pgstore.NewFraudLogStore(db)
	case c.redis != nil:
		logs = redisstore.NewFraudLogStore(c.redis, limit, retention)
	default:
		logs = memory.NewFraudLogStore()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgstore.NewQuizLoader(pool)
	}
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizzes app.QuizRepository
	if c.redis != nil {
		quizzes = redisstore.NewQuizRepository(c.redis, loader, quizTTL)
	} else {
		quizzes = memory.NewQuizRepository(loader, quizTTL)
	}

	opts := []app.Option{
		app.WithQuizRepository(quizzes),
		app.WithMetrics(c.metrics),
		app.WithLogger(logger),
		app.WithHistoryLimit(limit),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.KafkaTopic())
		c.closers = append(c.closers, func() { _ = publisher.Close() })
		opts = append(opts, app.WithPublisher(publisher))
	}

	c.service = app.NewFraudService(history, logs, app.NewScorer(cfg.Thresholds()), opts...)
	return c, nil
}

// redisConnOpt is the asynq connection for the configured Redis; ok is false without one.
func (c *components) redisConnOpt() (asynq.RedisClientOpt, bool) {
	if c.cfg.Redis.Addr == "" {
		return asynq.RedisClientOpt{}, false
	}
	return asynq.RedisClientOpt{
		Addr:     c.cfg.Redis.Addr,
		Password: c.cfg.Redis.Password,
		DB:       c.cfg.Redis.DB,
	}, true
}

// sampleQuizzes backs the accuracy rule when no Postgres quiz catalogue is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID: "quiz-1",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "o1", Text: "3", Correct: false},
						{ID: "o2", Text: "4", Correct: true},
						{ID: "o3", Text: "5", Correct: false},
					},
					Points: 1,
				},
			},
		},
	}
}
