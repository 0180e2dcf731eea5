package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recertify-fraud-service/internal/domain"
)

// Recorder exposes fraud check outcomes as Prometheus metrics.
type Recorder struct {
	registry      *prometheus.Registry
	checks        *prometheus.CounterVec
	blocked       prometheus.Counter
	flags         *prometheus.CounterVec
	riskScore     prometheus.Histogram
	storeFailures *prometheus.CounterVec
}

// NewRecorder registers all collectors on a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fraud",
			Name:      "checks_total",
			Help:      "Fraud checks completed, by warning level.",
		}, []string{"warning_level"}),
		blocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fraud",
			Name:      "blocked_total",
			Help:      "Submissions blocked by the fraud check.",
		}),
		flags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fraud",
			Name:      "flags_total",
			Help:      "Fraud flags raised, by flag.",
		}, []string{"flag"}),
		riskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fraud",
			Name:      "risk_score",
			Help:      "Distribution of risk scores.",
			Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fraud",
			Name:      "store_failures_total",
			Help:      "Swallowed failures of history, log, quiz or publisher backends.",
		}, []string{"store"}),
	}
	r.registry.MustRegister(
		r.checks, r.blocked, r.flags, r.riskScore, r.storeFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) ObserveCheck(result domain.FraudCheckResult) {
	det := result.FraudDetection
	r.checks.WithLabelValues(string(result.WarningLevel)).Inc()
	r.riskScore.Observe(float64(det.RiskScore))
	if result.Blocked {
		r.blocked.Inc()
	}
	if det.Flags.FastCompletion {
		r.flags.WithLabelValues("fast_completion").Inc()
	}
	if det.Flags.IdenticalRetries {
		r.flags.WithLabelValues("identical_retries").Inc()
	}
	if det.Flags.ImpossibleAccuracy {
		r.flags.WithLabelValues("impossible_accuracy").Inc()
	}
	if det.Flags.SuspiciousPattern {
		r.flags.WithLabelValues("suspicious_pattern").Inc()
	}
}

func (r *Recorder) ObserveStoreFailure(store string) {
	r.storeFailures.WithLabelValues(store).Inc()
}

// Handler serves the /metrics endpoint.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
