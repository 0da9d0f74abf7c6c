package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PlannerMetrics records fulfillment planning outcomes.
type PlannerMetrics struct {
	planDuration  *prometheus.HistogramVec
	plans         *prometheus.CounterVec
	conflicts     prometheus.Counter
	unfulfillable prometheus.Counter
	webhookDupes  prometheus.Counter
}

// NewPlannerMetrics registers the planner metrics on the provided registerer.
func NewPlannerMetrics(reg prometheus.Registerer) *PlannerMetrics {
	if reg == nil {
		return &PlannerMetrics{}
	}
	planDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plan_duration_seconds",
		Help:    "Duration of order fulfillment planning in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"shop"})
	plans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plans_total",
		Help: "Fulfillment plans by outcome.",
	}, []string{"outcome"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plan_conflict_retries_total",
		Help: "Plan attempts retried after a stock version conflict.",
	})
	unfulfillable := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "unfulfillable_items_total",
		Help: "Line items no supplier link could cover.",
	})
	webhookDupes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_duplicates_total",
		Help: "Order webhooks skipped by idempotency checks.",
	})
	reg.MustRegister(planDuration, plans, conflicts, unfulfillable, webhookDupes)
	return &PlannerMetrics{
		planDuration:  planDuration,
		plans:         plans,
		conflicts:     conflicts,
		unfulfillable: unfulfillable,
		webhookDupes:  webhookDupes,
	}
}

// ObservePlanDuration records how long planning took for the shop.
func (p *PlannerMetrics) ObservePlanDuration(shop string, duration time.Duration) {
	if p == nil || p.planDuration == nil {
		return
	}
	p.planDuration.WithLabelValues(normalizeLabel(shop)).Observe(duration.Seconds())
}

// IncPlan increments the plan counter for the given outcome.
func (p *PlannerMetrics) IncPlan(outcome string) {
	if p == nil || p.plans == nil {
		return
	}
	p.plans.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncConflictRetry increments the stock conflict retry counter.
func (p *PlannerMetrics) IncConflictRetry() {
	if p == nil || p.conflicts == nil {
		return
	}
	p.conflicts.Inc()
}

// AddUnfulfillable adds the count of items without a usable supplier link.
func (p *PlannerMetrics) AddUnfulfillable(count int) {
	if p == nil || p.unfulfillable == nil {
		return
	}
	p.unfulfillable.Add(float64(count))
}

// IncWebhookDuplicate increments the deduplicated webhook counter.
func (p *PlannerMetrics) IncWebhookDuplicate() {
	if p == nil || p.webhookDupes == nil {
		return
	}
	p.webhookDupes.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
