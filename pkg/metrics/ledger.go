package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TransferMetrics records ledger transfer outcomes.
type TransferMetrics struct {
	duration  *prometheus.HistogramVec
	retries   *prometheus.CounterVec
	shortages *prometheus.CounterVec
}

// NewTransferMetrics registers the transfer metrics on the provided registerer.
func NewTransferMetrics(reg prometheus.Registerer) *TransferMetrics {
	if reg == nil {
		return &TransferMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_transfer_duration_seconds",
		Help:    "Duration of ledger transfers in seconds, including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind", "outcome"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transfer_retries_total",
		Help: "Transfer attempts re-run after a lock or serialization conflict.",
	}, []string{"kind"})
	shortages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_insufficient_stock_total",
		Help: "Transfers rejected because a holder lacked stock.",
	}, []string{"kind"})
	reg.MustRegister(duration, retries, shortages)
	return &TransferMetrics{
		duration:  duration,
		retries:   retries,
		shortages: shortages,
	}
}

// ObserveTransfer records the total time spent on one transfer.
func (m *TransferMetrics) ObserveTransfer(kind, outcome string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncRetry counts one retried attempt.
func (m *TransferMetrics) IncRetry(kind string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncShortage counts one insufficient-stock rejection.
func (m *TransferMetrics) IncShortage(kind string) {
	if m == nil || m.shortages == nil {
		return
	}
	m.shortages.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
