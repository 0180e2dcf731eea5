package app

import (
	"math"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"recertify-fraud-service/internal/domain"
)

// Signal names reported in FraudDetection.Signals, in evaluation order.
const (
	SignalFastCompletion     = "fast_completion"
	SignalVeryFastCompletion = "very_fast_completion"
	SignalIdenticalRetry     = "identical_retry"
	SignalPerfectAccuracy    = "perfect_accuracy_too_fast"
	SignalHighAccuracy       = "high_accuracy_too_fast"
	SignalRetryVolume        = "retry_volume"
	SignalTimingRegularity   = "timing_regularity"
	SignalSessionVolume      = "session_volume"
)

// Scorer computes a fraud risk score for one submission from the user's own history.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	th  domain.Thresholds
	now func() time.Time
	ids func() string
}

func NewScorer(th domain.Thresholds) *Scorer {
	return &Scorer{
		th:  th.WithDefaults(),
		now: time.Now,
		ids: func() string { return uuid.NewString() },
	}
}

// Thresholds returns the effective tuning.
func (s *Scorer) Thresholds() domain.Thresholds {
	return s.th
}

// Score evaluates sub against history, the user's prior submissions in any order.
// key may be nil, in which case the accuracy heuristic is skipped.
// The caller must have validated sub; history is never modified.
func (s *Scorer) Score(sub domain.QuizSubmission, history []domain.QuizSubmission, key *domain.AnswerKey) domain.FraudDetection {
	th := s.th
	avg := sub.AverageTimePerQuestion()

	score := 0
	var flags domain.FraudFlags
	signals := make([]string, 0)
	add := func(points int, signal string) {
		score += points
		signals = append(signals, signal)
	}

	// Fast completion, stacking when very fast.
	if avg < th.FastSeconds {
		flags.FastCompletion = true
		add(th.FastPenalty, SignalFastCompletion)
		if avg < th.VeryFastSeconds {
			add(th.VeryFastPenalty, SignalVeryFastCompletion)
		}
	}

	priorSameQuiz := 0
	priorSameSession := 0
	identical := false
	for _, prev := range history {
		if prev.QuizID == sub.QuizID {
			priorSameQuiz++
			if !identical && slices.Equal(prev.Answers, sub.Answers) {
				identical = true
			}
		}
		if sub.SessionID != "" && prev.SessionID == sub.SessionID {
			priorSameSession++
		}
	}

	if identical {
		flags.IdenticalRetries = true
		add(th.IdenticalRetryPenalty, SignalIdenticalRetry)
	}

	if key != nil {
		accuracy := key.Accuracy(sub.Answers)
		switch {
		case accuracy >= 1 && avg < th.PerfectAccuracySeconds:
			flags.ImpossibleAccuracy = true
			add(th.PerfectAccuracyPenalty, SignalPerfectAccuracy)
		case accuracy >= th.HighAccuracy && avg < th.HighAccuracySeconds:
			flags.ImpossibleAccuracy = true
			add(th.HighAccuracyPenalty, SignalHighAccuracy)
		}
	}

	if priorSameQuiz > th.RetryVolumeLimit {
		flags.SuspiciousPattern = true
		add(th.RetryVolumePenalty, SignalRetryVolume)
	}

	if s.regularTiming(sub, history) {
		flags.SuspiciousPattern = true
		add(th.TimingPenalty, SignalTimingRegularity)
	}

	if priorSameSession > th.SessionVolumeLimit {
		flags.SuspiciousPattern = true
		add(th.SessionVolumePenalty, SignalSessionVolume)
	}

	if score > 100 {
		score = 100
	}

	return domain.FraudDetection{
		ID:                     s.ids(),
		UserID:                 sub.UserID,
		SessionID:              sub.SessionID,
		QuizID:                 sub.QuizID,
		RiskScore:              score,
		Flags:                  flags,
		Signals:                signals,
		TimeSpent:              sub.TimeSpent,
		AverageTimePerQuestion: avg,
		RetryCount:             priorSameQuiz + 1,
		Timestamp:              s.now(),
	}
}

// regularTiming reports whether the most recent submissions (current included) show
// near-identical per-question times, which humans rarely produce.
func (s *Scorer) regularTiming(sub domain.QuizSubmission, history []domain.QuizSubmission) bool {
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = s.now()
	}
	combined := make([]domain.QuizSubmission, 0, len(history)+1)
	combined = append(combined, history...)
	combined = append(combined, sub)
	// Stable so equal timestamps keep caller order with the current submission last.
	// History without a timestamp sorts oldest.
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].SubmittedAt.Before(combined[j].SubmittedAt)
	})

	window := s.th.TimingWindow
	if len(combined) > window {
		combined = combined[len(combined)-window:]
	}

	samples := make([]float64, 0, len(combined))
	for _, c := range combined {
		if len(c.Answers) == 0 || c.TimeSpent <= 0 {
			continue
		}
		samples = append(samples, c.AverageTimePerQuestion())
	}
	if len(samples) < 2 || len(samples) < s.th.TimingMinSamples {
		return false
	}
	return populationStdDev(samples) < s.th.TimingStdDevSeconds
}

func populationStdDev(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return math.Sqrt(sq / float64(len(xs)))
}
