package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks fund lifecycle operations.
type Metrics struct {
	FundsCreated      prometheus.Counter
	InvestorsAttached prometheus.Counter
	CapitalCommitted  prometheus.Counter
	RaisingConcluded  prometheus.Counter
	Rejections        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FundsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "fundops_funds_created_total",
			Help: "Funds opened in the raising phase",
		}),
		InvestorsAttached: f.NewCounter(prometheus.CounterOpts{
			Name: "fundops_fund_investor_attachments_total",
			Help: "Investor attachments, including capital top-ups",
		}),
		CapitalCommitted: f.NewCounter(prometheus.CounterOpts{
			Name: "fundops_fund_capital_committed_total",
			Help: "Sum of capital amounts recorded against funds",
		}),
		RaisingConcluded: f.NewCounter(prometheus.CounterOpts{
			Name: "fundops_fund_raising_concluded_total",
			Help: "Funds moved from raising to active",
		}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fundops_fund_rejections_total",
			Help: "Fund mutations rejected by an invariant, by error code",
		}, []string{"operation", "code"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fundops_fund_operation_duration_seconds",
			Help:    "Duration of fund operations including the transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncRejection(operation, code string) {
	m.Rejections.WithLabelValues(operation, code).Inc()
}

func (m *Metrics) IncFundCreated() { m.FundsCreated.Inc() }

func (m *Metrics) ObserveInvestorAttached(amount *float64) {
	m.InvestorsAttached.Inc()
	if amount != nil {
		m.CapitalCommitted.Add(*amount)
	}
}

func (m *Metrics) IncRaisingConcluded() { m.RaisingConcluded.Inc() }
