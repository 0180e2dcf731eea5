package app_test

import (
	"strings"
	"testing"

	"recertify-fraud-service/internal/app"
	"recertify-fraud-service/internal/domain"
)

func TestDecideThresholds(t *testing.T) {
	th := domain.DefaultThresholds()
	cases := []struct {
		score   int
		blocked bool
		level   domain.WarningLevel
		certify bool
	}{
		{0, false, domain.WarningNone, true},
		{30, false, domain.WarningLow, true},
		{49, false, domain.WarningLow, true},
		{50, false, domain.WarningMedium, false},
		{69, false, domain.WarningMedium, false},
		{70, true, domain.WarningHigh, false},
		{80, true, domain.WarningCritical, false},
		{100, true, domain.WarningCritical, false},
	}
	for _, tc := range cases {
		result := app.Decide(domain.FraudDetection{RiskScore: tc.score}, th, base)
		if result.Blocked != tc.blocked || result.WarningLevel != tc.level || result.AllowCertification != tc.certify {
			t.Fatalf("score %d: got blocked=%v level=%s certify=%v", tc.score, result.Blocked, result.WarningLevel, result.AllowCertification)
		}
		if result.Message == "" {
			t.Fatalf("score %d: expected a message", tc.score)
		}
	}
}

func TestDecideMessageNamesFlags(t *testing.T) {
	det := domain.FraudDetection{
		RiskScore: 75,
		Flags:     domain.FraudFlags{FastCompletion: true, IdenticalRetries: true},
	}
	result := app.Decide(det, domain.DefaultThresholds(), base)
	if !strings.HasPrefix(result.Message, "Submission blocked") {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if !strings.Contains(result.Message, "completed too quickly") || !strings.Contains(result.Message, "identical answers on retry") {
		t.Fatalf("message does not explain flags: %q", result.Message)
	}
}

func TestBuildRiskProfile(t *testing.T) {
	th := domain.DefaultThresholds()

	empty := app.BuildRiskProfile(nil, th)
	if empty.Level != domain.WarningNone || empty.TotalChecks != 0 {
		t.Fatalf("unexpected empty profile %+v", empty)
	}

	profile := app.BuildRiskProfile([]domain.FraudDetection{
		{RiskScore: 70, Flags: domain.FraudFlags{FastCompletion: true}},
		{RiskScore: 25, Flags: domain.FraudFlags{IdenticalRetries: true, SuspiciousPattern: true}},
		{RiskScore: 0},
	}, th)
	if profile.AverageRisk != 32 {
		t.Fatalf("expected average 32, got %d", profile.AverageRisk)
	}
	if profile.FlagCount != 3 {
		t.Fatalf("expected 3 flags, got %d", profile.FlagCount)
	}
	if profile.Level != domain.WarningLow || profile.TotalChecks != 3 {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestValidateSubmission(t *testing.T) {
	valid := domain.QuizSubmission{UserID: "u1", QuizID: "quiz-1", Answers: []int{0}, TimeSpent: 10}
	if err := app.ValidateSubmission(valid); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	missing := app.ValidateSubmission(domain.QuizSubmission{QuizID: "quiz-1"})
	if missing == nil || missing.Error() != "Missing required fields: userId, answers, timeSpent" {
		t.Fatalf("unexpected error %v", missing)
	}

	negative := valid
	negative.Answers = []int{0, -1}
	if err := app.ValidateSubmission(negative); err == nil {
		t.Fatalf("expected negative answer index to be rejected")
	}

	negTime := valid
	negTime.TimeSpent = -3
	if err := app.ValidateSubmission(negTime); err == nil {
		t.Fatalf("expected negative timeSpent to be rejected")
	}
}
