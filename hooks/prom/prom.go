// Package prom exports tiercache events as Prometheus counters.
package prom

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/tiercache"
)

type Hooks struct {
	hits           *prometheus.CounterVec
	misses         prometheus.Counter
	promotions     *prometheus.CounterVec
	setRejected    *prometheus.CounterVec
	tierErrors     *prometheus.CounterVec
	producerErrors prometheus.Counter
	selfHeals      *prometheus.CounterVec
}

var _ tiercache.Hooks = (*Hooks)(nil)

// New creates the collectors under namespace and registers them with reg.
// cacheName is a constant label so several caches can share a registry.
func New(reg prometheus.Registerer, namespace, cacheName string) (*Hooks, error) {
	labels := prometheus.Labels{"cache": cacheName}
	h := &Hooks{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tiercache", Name: "hits_total",
			Help: "Reads served, by the tier that held the key.", ConstLabels: labels,
		}, []string{"tier"}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tiercache", Name: "misses_total",
			Help: "Reads that no tier could serve.", ConstLabels: labels,
		}),
		promotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tiercache", Name: "promotions_total",
			Help: "Values copied into faster tiers, by source tier.", ConstLabels: labels,
		}, []string{"from_tier"}),
		setRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tiercache", Name: "set_rejected_total",
			Help: "Writes a tier refused under pressure.", ConstLabels: labels,
		}, []string{"tier"}),
		tierErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tiercache", Name: "tier_errors_total",
			Help: "Failed tier calls, by operation and tier.", ConstLabels: labels,
		}, []string{"op", "tier"}),
		producerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tiercache", Name: "producer_errors_total",
			Help: "GetOrSet producer failures.", ConstLabels: labels,
		}),
		selfHeals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tiercache", Name: "self_heals_total",
			Help: "Entries dropped because they could not be decoded.", ConstLabels: labels,
		}, []string{"reason"}),
	}
	for _, c := range []prometheus.Collector{
		h.hits, h.misses, h.promotions, h.setRejected, h.tierErrors, h.producerErrors, h.selfHeals,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) TierHit(tier int, _ string) { h.hits.WithLabelValues(strconv.Itoa(tier)).Inc() }
func (h *Hooks) Miss(string)                { h.misses.Inc() }
func (h *Hooks) Promoted(_ string, fromTier, _ int) {
	h.promotions.WithLabelValues(strconv.Itoa(fromTier)).Inc()
}
func (h *Hooks) SetRejected(tier int, _ string) {
	h.setRejected.WithLabelValues(strconv.Itoa(tier)).Inc()
}
func (h *Hooks) TierError(op tiercache.Op, tier int, _ error) {
	h.tierErrors.WithLabelValues(string(op), strconv.Itoa(tier)).Inc()
}
func (h *Hooks) ProducerFailed(string, error) { h.producerErrors.Inc() }
func (h *Hooks) SelfHeal(_, reason string) {
	h.selfHeals.WithLabelValues(reason).Inc()
}
