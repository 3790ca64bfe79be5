package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics provides observability for identity resolution and policy updates.
type Metrics struct {
	ResolutionOutcomes *prometheus.CounterVec
	DataFaults         *prometheus.CounterVec
	ResolveDuration    prometheus.Histogram
	PolicyUpdates      prometheus.Counter
	PoliciesDropped    prometheus.Counter
	IdentitiesCreated  *prometheus.CounterVec
	LoginLockouts      prometheus.Counter
}

// New registers identity metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ResolutionOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fundops_identity_resolution_outcomes_total",
			Help: "Credential resolutions by outcome kind",
		}, []string{"outcome"}),
		DataFaults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fundops_identity_data_faults_total",
			Help: "Resolutions that exposed corrupt identity data",
		}, []string{"outcome"}),
		ResolveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fundops_identity_resolve_duration_seconds",
			Help:    "Duration of credential resolution including the store lookup",
			Buckets: durationBuckets,
		}),
		PolicyUpdates: f.NewCounter(prometheus.CounterOpts{
			Name: "fundops_identity_policy_updates_total",
			Help: "Successful policy update requests",
		}),
		PoliciesDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "fundops_identity_policies_dropped_total",
			Help: "Requested policies dropped because the catalog does not allow them",
		}),
		IdentitiesCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fundops_identities_created_total",
			Help: "Identities created by role",
		}, []string{"role"}),
		LoginLockouts: f.NewCounter(prometheus.CounterOpts{
			Name: "fundops_identity_login_lockouts_total",
			Help: "Email addresses locked after repeated failed logins",
		}),
	}
}

func (m *Metrics) ObserveResolution(outcome string, dataFault bool, start time.Time) {
	m.ResolutionOutcomes.WithLabelValues(outcome).Inc()
	if dataFault {
		m.DataFaults.WithLabelValues(outcome).Inc()
	}
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObservePolicyUpdate(dropped int) {
	m.PolicyUpdates.Inc()
	if dropped > 0 {
		m.PoliciesDropped.Add(float64(dropped))
	}
}

func (m *Metrics) IncIdentityCreated(role string) {
	m.IdentitiesCreated.WithLabelValues(role).Inc()
}

func (m *Metrics) IncLockout() {
	m.LoginLockouts.Inc()
}
