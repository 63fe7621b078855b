package obs

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics holds the shopping-list collectors. A nil *DomainMetrics is
// valid and records nothing.
type DomainMetrics struct {
	EstimateRequests *prometheus.CounterVec
	PriceOrigins     *prometheus.CounterVec
	SeedCache        *prometheus.CounterVec
	Purchases        *prometheus.CounterVec
	Breakers         *prometheus.GaugeVec
}

// NewDomainMetrics registers the domain collectors on reg, reusing any that
// are already registered.
func NewDomainMetrics(namespace string, reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &DomainMetrics{
		EstimateRequests: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimate_requests_total",
			Help:      "List estimate computations by result.",
		}, []string{"result"})),
		PriceOrigins: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggested_price_origin_total",
			Help:      "Suggested unit prices by origin.",
		}, []string{"origin"})),
		SeedCache: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seed_price_cache_total",
			Help:      "Seed price cache lookups by result.",
		}, []string{"result"})),
		Purchases: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_item_purchases_total",
			Help:      "Items marked as purchased, split by whether a reference price was saved.",
		}, []string{"saved_reference"})),
		Breakers: registerOrReuse(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dependency_breaker_state",
			Help:      "Circuit breaker state per dependency: 0=closed, 1=open, 2=half-open.",
		}, []string{"target"})),
	}
}

// EstimateResult counts one estimate outcome ("ok", "empty", "error", "unauthenticated").
func (m *DomainMetrics) EstimateResult(result string) {
	if m == nil || m.EstimateRequests == nil {
		return
	}
	m.EstimateRequests.WithLabelValues(result).Inc()
}

// PriceOrigin counts one resolved suggestion.
func (m *DomainMetrics) PriceOrigin(origin string) {
	if m == nil || m.PriceOrigins == nil {
		return
	}
	m.PriceOrigins.WithLabelValues(origin).Inc()
}

// SeedCacheResult counts one cache lookup ("hit", "miss", "error", "bypass").
func (m *DomainMetrics) SeedCacheResult(result string) {
	if m == nil || m.SeedCache == nil {
		return
	}
	m.SeedCache.WithLabelValues(result).Inc()
}

// Purchase counts one item marked as purchased.
func (m *DomainMetrics) Purchase(savedReference bool) {
	if m == nil || m.Purchases == nil {
		return
	}
	m.Purchases.WithLabelValues(strconv.FormatBool(savedReference)).Inc()
}

// BreakerState records the state of the breaker guarding target.
func (m *DomainMetrics) BreakerState(target string, state int) {
	if m == nil || m.Breakers == nil {
		return
	}
	m.Breakers.WithLabelValues(target).Set(float64(state))
}

func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, collector T) T {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
	return collector
}
