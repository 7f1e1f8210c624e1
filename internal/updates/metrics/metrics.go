package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons used as the reason label.
const (
	ReasonUnauthorized      = "unauthorized"
	ReasonInvalidEncryption = "invalid_encryption"
	ReasonMalformed         = "malformed_input"
)

// Metrics provides observability for the update registry.
type Metrics struct {
	UpdatesAdded       prometheus.Counter
	UpdatesRejected    *prometheus.CounterVec
	QueryResults       *prometheus.CounterVec
	CallDuration       *prometheus.HistogramVec
	AuditEventsPending prometheus.GaugeFunc
}

// New registers the registry metrics on reg. pending, when non-nil, reports
// the number of undelivered audit events.
func New(reg prometheus.Registerer, pending func() int) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		UpdatesAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "secure_update_updates_added_total",
			Help: "Total number of update records written to the registry",
		}),
		UpdatesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "secure_update_updates_rejected_total",
			Help: "Total number of AddUpdate calls refused, by reason",
		}, []string{"reason"}),
		QueryResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "secure_update_queries_total",
			Help: "Total number of GetUpdate calls, by result",
		}, []string{"result"}),
		CallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "secure_update_call_duration_seconds",
			Help:    "Duration of contract calls",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"call"}),
	}
	if pending != nil {
		m.AuditEventsPending = factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "secure_update_audit_events_pending",
			Help: "Audit events buffered but not yet delivered",
		}, func() float64 { return float64(pending()) })
	}
	return m
}

// IncrementUpdatesAdded records a successful AddUpdate.
func (m *Metrics) IncrementUpdatesAdded() {
	m.UpdatesAdded.Inc()
}

// IncrementRejected records a refused AddUpdate.
func (m *Metrics) IncrementRejected(reason string) {
	m.UpdatesRejected.WithLabelValues(reason).Inc()
}

// IncrementQuery records a GetUpdate outcome ("hit", "miss" or "error").
func (m *Metrics) IncrementQuery(result string) {
	m.QueryResults.WithLabelValues(result).Inc()
}

// ObserveCall records the duration of a contract call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCall(call string, start time.Time) {
	m.CallDuration.WithLabelValues(call).Observe(time.Since(start).Seconds())
}
