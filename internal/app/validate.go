package app

import (
	"math"

	"recertify-fraud-service/internal/domain"
)

// ValidateSubmission rejects submissions the scorer cannot handle. Every error unwraps to
// domain.ErrInvalidSubmission.
func ValidateSubmission(sub domain.QuizSubmission) error {
	var missing []string
	if sub.UserID == "" {
		missing = append(missing, "userId")
	}
	if sub.QuizID == "" {
		missing = append(missing, "quizId")
	}
	if len(sub.Answers) == 0 {
		missing = append(missing, "answers")
	}
	if sub.TimeSpent == 0 {
		missing = append(missing, "timeSpent")
	}
	if len(missing) > 0 {
		return &domain.ValidationError{Missing: missing}
	}

	if sub.TimeSpent < 0 || math.IsNaN(sub.TimeSpent) || math.IsInf(sub.TimeSpent, 0) {
		return &domain.ValidationError{Reason: "timeSpent must be a positive number of seconds"}
	}
	for _, a := range sub.Answers {
		if a < 0 {
			return &domain.ValidationError{Reason: "answers must be non-negative option indices"}
		}
	}
	return nil
}
