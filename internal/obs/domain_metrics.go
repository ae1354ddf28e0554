package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricingComputationsTotal counts pricing endpoint computations by outcome.
	PricingComputationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_computations_total",
		Help: "Count of pricing computations by endpoint and result.",
	}, []string{"endpoint", "result"})

	// OfferResolutionsTotal counts offer resolutions by offer type and outcome.
	OfferResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "offer_resolutions_total",
		Help: "Count of offer resolutions by offer type and result.",
	}, []string{"type", "result"})

	// GuidelineChecksTotal counts economics validations by pass/fail outcome.
	GuidelineChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guideline_checks_total",
		Help: "Count of economics guideline evaluations by result.",
	}, []string{"result"})

	// DraftDiscardFailuresTotal counts draft orders that could not be cleaned
	// up after a totals computation. Non-zero values mean drafts are leaking
	// into the order engine.
	DraftDiscardFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "draft_discard_failures_total",
		Help: "Count of throwaway order drafts that failed to discard.",
	})

	// ComputationDuration records end-to-end totals computation latency.
	ComputationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_computation_duration_ms",
		Help:    "Latency of full totals computations in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"endpoint"})
)

// MustRegisterDomainMetrics registers the domain collectors with the given
// registerer. Collectors work unregistered, so code paths exercised in tests
// do not require a registry.
func MustRegisterDomainMetrics(reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		for _, c := range []prometheus.Collector{
			PricingComputationsTotal,
			OfferResolutionsTotal,
			GuidelineChecksTotal,
			DraftDiscardFailuresTotal,
			ComputationDuration,
		} {
			if err := reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
					continue
				}
				panic(fmt.Errorf("register domain metric: %w", err))
			}
		}
	})
}
