package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPlannerMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPlannerMetrics(reg)
	shop := "demo.myshopify.com"
	metrics.ObservePlanDuration(shop, 120*time.Millisecond)
	metrics.IncPlan("planned")
	metrics.IncConflictRetry()
	metrics.AddUnfulfillable(2)
	metrics.IncWebhookDuplicate()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "plans_total", "outcome", "planned"); err != nil {
		t.Fatalf("fetch plans: %v", err)
	} else if got != 1 {
		t.Fatalf("expected plans=1, got %f", got)
	}

	if got, err := fetchPlainCounterValue(mfs, "plan_conflict_retries_total"); err != nil {
		t.Fatalf("fetch conflicts: %v", err)
	} else if got != 1 {
		t.Fatalf("expected conflicts=1, got %f", got)
	}

	if got, err := fetchPlainCounterValue(mfs, "unfulfillable_items_total"); err != nil {
		t.Fatalf("fetch unfulfillable: %v", err)
	} else if got != 2 {
		t.Fatalf("expected unfulfillable=2, got %f", got)
	}

	if got, err := fetchPlainCounterValue(mfs, "webhook_duplicates_total"); err != nil {
		t.Fatalf("fetch webhook dupes: %v", err)
	} else if got != 1 {
		t.Fatalf("expected webhook dupes=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "plan_duration_seconds", "shop", shop); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestPlannerMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewPlannerMetrics(nil)
	metrics.ObservePlanDuration("shop", time.Second)
	metrics.IncPlan("planned")
	metrics.IncConflictRetry()
	metrics.AddUnfulfillable(1)
	metrics.IncWebhookDuplicate()
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

func fetchPlainCounterValue(mfs []*dto.MetricFamily, name string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	if len(mf.GetMetric()) == 0 {
		return 0, fmt.Errorf("metric %q has no samples", name)
	}
	return mf.GetMetric()[0].GetCounter().GetValue(), nil
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
