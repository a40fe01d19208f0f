package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AuditAppendsTotal    prometheus.Counter
	AuditRejectionsTotal *prometheus.CounterVec
	AuditQueriesTotal    prometheus.Counter
	AuditExportsTotal    *prometheus.CounterVec
	AuditBreakGlassTotal prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		AuditAppendsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetaudit_appends_total",
			Help: "Total number of audit events committed to the ledger",
		}),
		AuditRejectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetaudit_rejections_total",
			Help: "Total number of appends rejected by the policy guard",
		}, []string{"code"}),
		AuditQueriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetaudit_queries_total",
			Help: "Total number of ledger queries served",
		}),
		AuditExportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetaudit_exports_total",
			Help: "Total number of export artifacts produced",
		}, []string{"format"}),
		AuditBreakGlassTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetaudit_break_glass_total",
			Help: "Total number of committed events with break-glass access used",
		}),
	}
}

func (m *Metrics) IncrementAppends() {
	m.AuditAppendsTotal.Inc()
}

func (m *Metrics) IncrementRejections(code string) {
	m.AuditRejectionsTotal.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementQueries() {
	m.AuditQueriesTotal.Inc()
}

func (m *Metrics) IncrementExports(format string) {
	m.AuditExportsTotal.WithLabelValues(format).Inc()
}

func (m *Metrics) IncrementBreakGlass() {
	m.AuditBreakGlassTotal.Inc()
}
