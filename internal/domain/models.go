package domain

import (
	"strconv"
	"time"
)

// QuizSubmission is one attempt at a quiz as reported by a client.
type QuizSubmission struct {
	UserID      string    `json:"userId"`
	QuizID      string    `json:"quizId"`
	Answers     []int     `json:"answers"`
	TimeSpent   float64   `json:"timeSpent"` // seconds
	StartTime   *int64    `json:"startTime,omitempty"`
	EndTime     *int64    `json:"endTime,omitempty"`
	SessionID   string    `json:"sessionId,omitempty"`
	SubmittedAt time.Time `json:"submittedAt,omitempty"`
}

// AverageTimePerQuestion returns seconds per answered question, or 0 when no answers were given.
func (s QuizSubmission) AverageTimePerQuestion() float64 {
	if len(s.Answers) == 0 {
		return 0
	}
	return s.TimeSpent / float64(len(s.Answers))
}

// DefaultSessionID derives the fallback session key used when a client sends none.
func DefaultSessionID(now time.Time) string {
	return "session_" + strconv.FormatInt(now.UnixMilli(), 10)
}

// FraudFlags explains which heuristic families fired for a submission.
type FraudFlags struct {
	FastCompletion     bool `json:"fastCompletion"`
	IdenticalRetries   bool `json:"identicalRetries"`
	ImpossibleAccuracy bool `json:"impossibleAccuracy"`
	SuspiciousPattern  bool `json:"suspiciousPattern"`
}

// Count returns how many flags are set.
func (f FraudFlags) Count() int {
	n := 0
	for _, set := range []bool{f.FastCompletion, f.IdenticalRetries, f.ImpossibleAccuracy, f.SuspiciousPattern} {
		if set {
			n++
		}
	}
	return n
}

// FraudDetection is the scored outcome for a single submission.
type FraudDetection struct {
	ID                     string     `json:"id"`
	UserID                 string     `json:"userId"`
	SessionID              string     `json:"sessionId"`
	QuizID                 string     `json:"quizId"`
	RiskScore              int        `json:"riskScore"`
	Flags                  FraudFlags `json:"flags"`
	Signals                []string   `json:"signals"`
	TimeSpent              float64    `json:"timeSpent"`
	AverageTimePerQuestion float64    `json:"averageTimePerQuestion"`
	RetryCount             int        `json:"retryCount"`
	Timestamp              time.Time  `json:"timestamp"`
}

// WarningLevel buckets a risk score for display and policy.
type WarningLevel string

const (
	WarningNone     WarningLevel = "none"
	WarningLow      WarningLevel = "low"
	WarningMedium   WarningLevel = "medium"
	WarningHigh     WarningLevel = "high"
	WarningCritical WarningLevel = "critical"
)

// FraudCheckResult is the decision returned to callers of a fraud check.
type FraudCheckResult struct {
	FraudDetection     FraudDetection `json:"fraudDetection"`
	Blocked            bool           `json:"blocked"`
	WarningLevel       WarningLevel   `json:"warningLevel"`
	Message            string         `json:"message"`
	AllowCertification bool           `json:"allowCertification"`
	Timestamp          time.Time      `json:"timestamp"`
}

// RiskProfile summarizes a user's stored detections.
type RiskProfile struct {
	Level       WarningLevel `json:"level"`
	AverageRisk int          `json:"averageRisk"`
	FlagCount   int          `json:"flagCount"`
	TotalChecks int          `json:"totalChecks"`
}

// UserFraudHistory is the read model served for a single user.
type UserFraudHistory struct {
	UserID       string           `json:"userId"`
	FraudHistory []FraudDetection `json:"fraudHistory"`
	RiskProfile  RiskProfile      `json:"riskProfile"`
}

// Option represents a possible answer for a question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
	Points  int      `json:"points"`
}

// Quiz is a collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// AnswerKey returns the index of the correct option for each question, in question order.
// Questions without a flagged option map to -1 and never match a submitted answer.
func (q Quiz) AnswerKey() AnswerKey {
	correct := make([]int, len(q.Questions))
	for i, question := range q.Questions {
		correct[i] = -1
		for j, opt := range question.Options {
			if opt.Correct {
				correct[i] = j
				break
			}
		}
	}
	return AnswerKey{QuizID: q.ID, Correct: correct}
}

// AnswerKey holds the correct option index per question of a quiz.
type AnswerKey struct {
	QuizID  string `json:"quizId"`
	Correct []int  `json:"correct"`
}

// Accuracy returns the fraction of answers matching the key. Answers beyond the key count as wrong.
func (k AnswerKey) Accuracy(answers []int) float64 {
	if len(answers) == 0 {
		return 0
	}
	hits := 0
	for i, a := range answers {
		if i < len(k.Correct) && k.Correct[i] >= 0 && k.Correct[i] == a {
			hits++
		}
	}
	return float64(hits) / float64(len(answers))
}
