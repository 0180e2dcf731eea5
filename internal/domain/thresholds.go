package domain

// Thresholds holds every tunable number used by the scorer and the decision policy.
type Thresholds struct {
	FastSeconds     float64 `yaml:"fastSeconds"`
	VeryFastSeconds float64 `yaml:"veryFastSeconds"`
	FastPenalty     int     `yaml:"fastPenalty"`
	VeryFastPenalty int     `yaml:"veryFastPenalty"`

	IdenticalRetryPenalty int `yaml:"identicalRetryPenalty"`

	PerfectAccuracySeconds float64 `yaml:"perfectAccuracySeconds"`
	PerfectAccuracyPenalty int     `yaml:"perfectAccuracyPenalty"`
	HighAccuracy           float64 `yaml:"highAccuracy"`
	HighAccuracySeconds    float64 `yaml:"highAccuracySeconds"`
	HighAccuracyPenalty    int     `yaml:"highAccuracyPenalty"`

	RetryVolumeLimit   int `yaml:"retryVolumeLimit"`
	RetryVolumePenalty int `yaml:"retryVolumePenalty"`

	TimingWindow        int     `yaml:"timingWindow"`
	TimingMinSamples    int     `yaml:"timingMinSamples"`
	TimingStdDevSeconds float64 `yaml:"timingStdDevSeconds"`
	TimingPenalty       int     `yaml:"timingPenalty"`

	SessionVolumeLimit   int `yaml:"sessionVolumeLimit"`
	SessionVolumePenalty int `yaml:"sessionVolumePenalty"`

	BlockThreshold         int `yaml:"blockThreshold"`
	CertificationThreshold int `yaml:"certificationThreshold"`
	WarnLow                int `yaml:"low"`
	WarnMedium             int `yaml:"medium"`
	WarnHigh               int `yaml:"high"`
	WarnCritical           int `yaml:"critical"`
}

// DefaultThresholds returns the production tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FastSeconds:     15,
		VeryFastSeconds: 5,
		FastPenalty:     30,
		VeryFastPenalty: 40,

		IdenticalRetryPenalty: 25,

		PerfectAccuracySeconds: 20,
		PerfectAccuracyPenalty: 35,
		HighAccuracy:           0.9,
		HighAccuracySeconds:    10,
		HighAccuracyPenalty:    25,

		RetryVolumeLimit:   5,
		RetryVolumePenalty: 20,

		TimingWindow:        5,
		TimingMinSamples:    3,
		TimingStdDevSeconds: 2,
		TimingPenalty:       15,

		SessionVolumeLimit:   10,
		SessionVolumePenalty: 10,

		BlockThreshold:         70,
		CertificationThreshold: 50,
		WarnLow:                30,
		WarnMedium:             50,
		WarnHigh:               70,
		WarnCritical:           80,
	}
}

// WithDefaults fills every zero field from DefaultThresholds.
func (t Thresholds) WithDefaults() Thresholds {
	d := DefaultThresholds()
	fillF := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	fillI := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}
	fillF(&t.FastSeconds, d.FastSeconds)
	fillF(&t.VeryFastSeconds, d.VeryFastSeconds)
	fillI(&t.FastPenalty, d.FastPenalty)
	fillI(&t.VeryFastPenalty, d.VeryFastPenalty)
	fillI(&t.IdenticalRetryPenalty, d.IdenticalRetryPenalty)
	fillF(&t.PerfectAccuracySeconds, d.PerfectAccuracySeconds)
	fillI(&t.PerfectAccuracyPenalty, d.PerfectAccuracyPenalty)
	fillF(&t.HighAccuracy, d.HighAccuracy)
	fillF(&t.HighAccuracySeconds, d.HighAccuracySeconds)
	fillI(&t.HighAccuracyPenalty, d.HighAccuracyPenalty)
	fillI(&t.RetryVolumeLimit, d.RetryVolumeLimit)
	fillI(&t.RetryVolumePenalty, d.RetryVolumePenalty)
	fillI(&t.TimingWindow, d.TimingWindow)
	fillI(&t.TimingMinSamples, d.TimingMinSamples)
	fillF(&t.TimingStdDevSeconds, d.TimingStdDevSeconds)
	fillI(&t.TimingPenalty, d.TimingPenalty)
	fillI(&t.SessionVolumeLimit, d.SessionVolumeLimit)
	fillI(&t.SessionVolumePenalty, d.SessionVolumePenalty)
	fillI(&t.BlockThreshold, d.BlockThreshold)
	fillI(&t.CertificationThreshold, d.CertificationThreshold)
	fillI(&t.WarnLow, d.WarnLow)
	fillI(&t.WarnMedium, d.WarnMedium)
	fillI(&t.WarnHigh, d.WarnHigh)
	fillI(&t.WarnCritical, d.WarnCritical)
	return t
}

// WarningLevelFor buckets a score using the configured cut points.
func (t Thresholds) WarningLevelFor(score int) WarningLevel {
	switch {
	case score >= t.WarnCritical:
		return WarningCritical
	case score >= t.WarnHigh:
		return WarningHigh
	case score >= t.WarnMedium:
		return WarningMedium
	case score >= t.WarnLow:
		return WarningLow
	default:
		return WarningNone
	}
}
