package resilience

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	// BreakerState exposes the current breaker state per collaborator
	// (0 closed, 0.5 half-open, 1 open).
	BreakerState *prometheus.GaugeVec
	// BreakerTransitions counts state transitions per collaborator.
	BreakerTransitions *prometheus.CounterVec
	// BreakerOpenedTotal counts how many times a breaker opened.
	BreakerOpenedTotal *prometheus.CounterVec
)

// MustRegisterMetrics initialises breaker collectors under the given namespace.
func MustRegisterMetrics(namespace string, reg prometheus.Registerer) {
	metricsOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state per collaborator (0 closed, 0.5 half-open, 1 open).",
		}, []string{"target"})
		BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state transitions per collaborator.",
		}, []string{"target", "from", "to"})
		BreakerOpenedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_opened_total",
			Help:      "Number of times a circuit breaker opened.",
		}, []string{"target"})

		for _, c := range []prometheus.Collector{BreakerState, BreakerTransitions, BreakerOpenedTotal} {
			if err := reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
					panic(err)
				}
			}
		}
	})
}
