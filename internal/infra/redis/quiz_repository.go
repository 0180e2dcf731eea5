package redis

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"recertify-fraud-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store (e.g., Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository caches answer keys in Redis (hash per quiz) and falls back to a loader on cache miss.
// Keys are stored as: HSET quiz:{quizID}:answers {questionIndex} {correctOptionIndex}
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetAnswerKey(ctx context.Context, quizID string) (domain.AnswerKey, error) {
	answerKey := r.answersKey(quizID)

	answers, err := r.client.HGetAll(ctx, answerKey).Result()
	if err == nil && len(answers) > 0 {
		return buildKeyFromCache(quizID, answers), nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		answers, err := r.client.HGetAll(ctx, answerKey).Result()
		if err == nil && len(answers) > 0 {
			return buildKeyFromCache(quizID, answers), nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		key := quiz.AnswerKey()
		if len(key.Correct) == 0 {
			return key, nil
		}

		fields := make(map[string]interface{}, len(key.Correct))
		for i, c := range key.Correct {
			fields[strconv.Itoa(i)] = c
		}
		pipe := r.client.Pipeline()
		pipe.HSet(ctx, answerKey, fields)
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, answerKey, ttl)
		}
		// cache fill is best-effort
		_, _ = pipe.Exec(ctx)

		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

func (r *QuizRepository) answersKey(quizID string) string {
	return "quiz:" + quizID + ":answers"
}

func buildKeyFromCache(quizID string, answers map[string]string) domain.AnswerKey {
	size := 0
	for field := range answers {
		if idx, err := strconv.Atoi(field); err == nil && idx+1 > size {
			size = idx + 1
		}
	}
	correct := make([]int, size)
	for i := range correct {
		correct[i] = -1
	}
	for field, value := range answers {
		idx, err := strconv.Atoi(field)
		if err != nil || idx < 0 {
			continue
		}
		if opt, err := strconv.Atoi(value); err == nil {
			correct[idx] = opt
		}
	}
	return domain.AnswerKey{QuizID: quizID, Correct: correct}
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
