package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics tracks cart-to-order conversions.
type CheckoutMetrics struct {
	placed        prometheus.Counter
	failed        *prometheus.CounterVec
	compensations *prometheus.CounterVec
	retired       prometheus.Counter
}

// NewCheckoutMetrics registers checkout counters on reg. A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "orders_placed_total",
		Help:      "Orders created from a cart.",
	})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "failures_total",
		Help:      "Checkout attempts that failed, by step.",
	}, []string{"step"})
	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "compensations_total",
		Help:      "Compensating actions run after a partial checkout, by outcome.",
	}, []string{"outcome"})
	retired := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "listings_retired_total",
		Help:      "Product listings removed because checkout sold them out.",
	})
	reg.MustRegister(placed, failed, compensations, retired)
	return &CheckoutMetrics{placed: placed, failed: failed, compensations: compensations, retired: retired}
}

func (m *CheckoutMetrics) IncPlaced() {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
}

func (m *CheckoutMetrics) IncFailure(step string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(step)).Inc()
}

// IncCompensation records a compensation run; ok=false means at least one undo step failed.
func (m *CheckoutMetrics) IncCompensation(ok bool) {
	if m == nil || m.compensations == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.compensations.WithLabelValues(outcome).Inc()
}

func (m *CheckoutMetrics) AddRetired(n int) {
	if m == nil || m.retired == nil || n <= 0 {
		return
	}
	m.retired.Add(float64(n))
}
