package app

import (
	"math"
	"strings"
	"time"

	"recertify-fraud-service/internal/domain"
)

// Decide turns a detection into the block/warn/certify decision. It is kept apart
// from Scorer so policy can be tuned without touching the heuristics.
func Decide(det domain.FraudDetection, th domain.Thresholds, now time.Time) domain.FraudCheckResult {
	th = th.WithDefaults()
	blocked := det.RiskScore >= th.BlockThreshold
	level := th.WarningLevelFor(det.RiskScore)
	return domain.FraudCheckResult{
		FraudDetection:     det,
		Blocked:            blocked,
		WarningLevel:       level,
		Message:            decisionMessage(blocked, level, det.Flags),
		AllowCertification: !blocked && det.RiskScore < th.CertificationThreshold,
		Timestamp:          now,
	}
}

func decisionMessage(blocked bool, level domain.WarningLevel, flags domain.FraudFlags) string {
	if blocked {
		return "Submission blocked: suspicious activity detected (" + describeFlags(flags) + ")"
	}
	switch level {
	case domain.WarningMedium:
		return "Submission accepted but flagged for review (" + describeFlags(flags) + ")"
	case domain.WarningLow:
		return "Submission accepted with minor irregularities (" + describeFlags(flags) + ")"
	default:
		return "Submission looks legitimate"
	}
}

func describeFlags(flags domain.FraudFlags) string {
	parts := make([]string, 0, 4)
	if flags.FastCompletion {
		parts = append(parts, "completed too quickly")
	}
	if flags.IdenticalRetries {
		parts = append(parts, "identical answers on retry")
	}
	if flags.ImpossibleAccuracy {
		parts = append(parts, "accuracy inconsistent with time spent")
	}
	if flags.SuspiciousPattern {
		parts = append(parts, "suspicious submission pattern")
	}
	if len(parts) == 0 {
		return "no specific flags"
	}
	return strings.Join(parts, "; ")
}

// BuildRiskProfile summarizes stored detections for the read endpoint.
func BuildRiskProfile(records []domain.FraudDetection, th domain.Thresholds) domain.RiskProfile {
	th = th.WithDefaults()
	if len(records) == 0 {
		return domain.RiskProfile{Level: domain.WarningNone}
	}
	total := 0
	flagCount := 0
	for _, r := range records {
		total += r.RiskScore
		flagCount += r.Flags.Count()
	}
	avg := int(math.Round(float64(total) / float64(len(records))))
	return domain.RiskProfile{
		Level:       th.WarningLevelFor(avg),
		AverageRisk: avg,
		FlagCount:   flagCount,
		TotalChecks: len(records),
	}
}
