package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"recertify-fraud-service/internal/app"
	"recertify-fraud-service/internal/config"
	"recertify-fraud-service/internal/domain"
)

// scoreInput is a recorded submission replayed offline against its history.
type scoreInput struct {
	Submission domain.QuizSubmission   `json:"submission"`
	History    []domain.QuizSubmission `json:"history"`
	AnswerKey  *domain.AnswerKey       `json:"answerKey,omitempty"`
	Quiz       *domain.Quiz            `json:"quiz,omitempty"`
}

// NewScoreCmd scores a submission from a JSON file without touching any store.
func NewScoreCmd(configPath *string) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a recorded submission offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			th := domain.DefaultThresholds()
			if cfg, err := config.Load(*configPath); err == nil {
				th = cfg.Thresholds()
			}

			var r io.Reader = cmd.InOrStdin()
			if input != "" && input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			return scoreOffline(r, cmd.OutOrStdout(), th, time.Now())
		},
	}
	cmd.Flags().StringVar(&input, "input", "-", "JSON file with submission, history and optional answerKey or quiz (- for stdin)")
	return cmd
}

func scoreOffline(r io.Reader, w io.Writer, th domain.Thresholds, now time.Time) error {
	var in scoreInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return fmt.Errorf("decode score input: %w", err)
	}
	sub := in.Submission
	if err := app.ValidateSubmission(sub); err != nil {
		return err
	}
	if sub.SessionID == "" {
		sub.SessionID = domain.DefaultSessionID(now)
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = now
	}

	key := in.AnswerKey
	if key == nil && in.Quiz != nil {
		k := in.Quiz.AnswerKey()
		key = &k
	}

	scorer := app.NewScorer(th)
	det := scorer.Score(sub, in.History, key)
	result := app.Decide(det, scorer.Thresholds(), now)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
