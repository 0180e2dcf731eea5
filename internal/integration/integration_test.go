package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"recertify-fraud-service/internal/app"
	"recertify-fraud-service/internal/domain"
	pgstore "recertify-fraud-service/internal/infra/postgres"
	pgmigrations "recertify-fraud-service/internal/infra/postgres/migrations"
	infraredis "recertify-fraud-service/internal/infra/redis"
)

func TestFraudCheckEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openDB(pgURL)
	defer db.Close()
	seedQuiz(t, ctx, db, sampleQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	quizRepo := infraredis.NewQuizRepository(redisClient, pgstore.NewQuizLoader(pool), 5*time.Minute)
	history := infraredis.NewHistoryStore(redisClient, 200, time.Hour)
	logs := pgstore.NewFraudLogStore(db)
	service := app.NewFraudService(history, logs, app.NewScorer(domain.DefaultThresholds()),
		app.WithQuizRepository(quizRepo),
		app.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	first, err := service.Check(ctx, domain.QuizSubmission{UserID: "u1", QuizID: "quiz-1", Answers: []int{1}, TimeSpent: 16, SessionID: "s1"})
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if !first.FraudDetection.Flags.ImpossibleAccuracy || first.FraudDetection.RiskScore != 35 {
		t.Fatalf("expected accuracy penalty from seeded answer key, got %+v", first.FraudDetection)
	}
	if first.Blocked || first.WarningLevel != domain.WarningLow {
		t.Fatalf("unexpected decision %+v", first)
	}

	second, err := service.Check(ctx, domain.QuizSubmission{UserID: "u1", QuizID: "quiz-1", Answers: []int{1}, TimeSpent: 3, SessionID: "s2"})
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	// fast 30 + very fast 40 + identical retry 25 + accuracy 35, clamped
	if second.FraudDetection.RiskScore != 100 || !second.Blocked || second.AllowCertification {
		t.Fatalf("expected blocked retry, got %+v", second)
	}

	stored, err := history.LoadRecent(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 submissions in redis, got %d", len(stored))
	}

	userHistory, err := service.History(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(userHistory.FraudHistory) != 2 || userHistory.FraudHistory[0].RiskScore != 100 {
		t.Fatalf("expected newest detection first from postgres, got %+v", userHistory.FraudHistory)
	}
	if userHistory.RiskProfile.AverageRisk != 68 || userHistory.RiskProfile.Level != domain.WarningMedium {
		t.Fatalf("unexpected risk profile %+v", userHistory.RiskProfile)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "fraud", "POSTGRES_PASSWORD": "fraudpass", "POSTGRES_DB": "frauddb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://fraud:fraudpass@%s:%s/frauddb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func openDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func seedQuiz(t *testing.T, ctx context.Context, db *bun.DB, quiz domain.Quiz) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO quizzes (id, data) VALUES (? , ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, quiz.ID, string(data)); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
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
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
