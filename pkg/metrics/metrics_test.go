package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestTransferMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewTransferMetrics(reg)
	metrics.ObserveTransfer("dispatch_accept", "committed", 120*time.Millisecond)
	metrics.IncRetry("dispatch_accept")
	metrics.IncRetry("dispatch_accept")
	metrics.IncShortage("shop_order")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "ledger_transfer_retries_total", "kind", "dispatch_accept"); err != nil {
		t.Fatalf("fetch retries: %v", err)
	} else if got != 2 {
		t.Fatalf("expected retries=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "ledger_insufficient_stock_total", "kind", "shop_order"); err != nil {
		t.Fatalf("fetch shortages: %v", err)
	} else if got != 1 {
		t.Fatalf("expected shortages=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "ledger_transfer_duration_seconds", "outcome", "committed"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestTransferMetricsNilSafe(t *testing.T) {
	var metrics *TransferMetrics
	metrics.ObserveTransfer("x", "y", time.Second)
	metrics.IncRetry("x")

	unregistered := NewTransferMetrics(nil)
	unregistered.IncShortage("x")
}

func TestOutboxMetricsLabelsEmptyValues(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOutboxMetrics(reg)
	metrics.IncPublished("debt_paid")
	metrics.IncFailed("")
	metrics.IncDeadLettered("max_attempts")
	metrics.ObserveBatch(10 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_publish_failures_total", "event_type", "unknown"); err != nil {
		t.Fatalf("fetch failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failures=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "outbox_dead_lettered_total", "reason", "max_attempts"); err != nil {
		t.Fatalf("fetch dlq: %v", err)
	} else if got != 1 {
		t.Fatalf("expected dlq=1, got %f", got)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
