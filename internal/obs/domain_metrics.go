package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SaleSubmitTotal counts sale submissions by mode and outcome.
	SaleSubmitTotal *prometheus.CounterVec
	// RateRefreshTotal counts exchange-rate refresh attempts by outcome.
	RateRefreshTotal *prometheus.CounterVec
	// BarcodeLookupTotal counts barcode lookups by outcome (hit, miss, error).
	BarcodeLookupTotal *prometheus.CounterVec
	// SavedCartGauge tracks the number of parked carts per terminal.
	SavedCartGauge *prometheus.GaugeVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SaleSubmitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sale_submit_total",
			Help:      "Count of sale submissions by mode, payment type, and result.",
		}, []string{"mode", "payment_type", "result"})
		RateRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_refresh_total",
			Help:      "Count of USD exchange-rate refresh attempts by result.",
		}, []string{"result"})
		BarcodeLookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "barcode_lookup_total",
			Help:      "Count of barcode lookups by result.",
		}, []string{"result"})
		SavedCartGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "saved_carts",
			Help:      "Number of parked carts per terminal.",
		}, []string{"terminal"})

		registerCollector(reg, SaleSubmitTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SaleSubmitTotal = v
			}
		})
		registerCollector(reg, RateRefreshTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RateRefreshTotal = v
			}
		})
		registerCollector(reg, BarcodeLookupTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BarcodeLookupTotal = v
			}
		})
		registerCollector(reg, SavedCartGauge, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.GaugeVec); ok {
				SavedCartGauge = v
			}
		})
	})
}

func registerCollector(reg prometheus.Registerer, c prometheus.Collector, replace func(prometheus.Collector)) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			replace(are.ExistingCollector)
			return
		}
		panic(err)
	}
}
