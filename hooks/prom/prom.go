// Package promhooks exports memocache hook events as Prometheus counters.
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/memocache"
)

// Hooks counts events per computation identity. Keys are not used as labels.
type Hooks struct {
	hits            *prometheus.CounterVec
	misses          *prometheus.CounterVec
	bypasses        *prometheus.CounterVec
	storeErrors     *prometheus.CounterVec
	invalidateErrs  *prometheus.CounterVec
	versionsCreated *prometheus.CounterVec
	versionsBumped  *prometheus.CounterVec
	selfHeals       prometheus.Counter
	setRejected     prometheus.Counter
}

var _ memocache.Hooks = (*Hooks)(nil)

// New registers the counters with reg under namespace (default "memocache").
func New(reg prometheus.Registerer, namespace string) (*Hooks, error) {
	if namespace == "" {
		namespace = "memocache"
	}
	vec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	}
	h := &Hooks{
		hits:            vec("hits_total", "Memoized calls served from the cache.", "identity"),
		misses:          vec("misses_total", "Memoized calls that ran the computation.", "identity"),
		bypasses:        vec("bypass_total", "Memoized calls that skipped the cache.", "identity"),
		storeErrors:     vec("store_errors_total", "Cache failures that fell back to a direct call.", "identity", "op"),
		invalidateErrs:  vec("invalidate_errors_total", "Swallowed invalidation failures.", "identity", "op"),
		versionsCreated: vec("versions_created_total", "Version tokens created lazily.", "identity"),
		versionsBumped:  vec("versions_bumped_total", "Version tokens replaced by InvalidateAll.", "identity"),
		selfHeals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "self_heals_total",
			Help:      "Undecodable entries deleted on read.",
		}),
		setRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "set_rejected_total",
			Help:      "Writes rejected by the provider under pressure.",
		}),
	}
	for _, c := range []prometheus.Collector{
		h.hits, h.misses, h.bypasses, h.storeErrors, h.invalidateErrs,
		h.versionsCreated, h.versionsBumped, h.selfHeals, h.setRejected,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) Hit(id string)            { h.hits.WithLabelValues(id).Inc() }
func (h *Hooks) Miss(id string)           { h.misses.WithLabelValues(id).Inc() }
func (h *Hooks) Bypass(id string)         { h.bypasses.WithLabelValues(id).Inc() }
func (h *Hooks) VersionCreated(id string) { h.versionsCreated.WithLabelValues(id).Inc() }
func (h *Hooks) VersionBumped(id string)  { h.versionsBumped.WithLabelValues(id).Inc() }
func (h *Hooks) SelfHeal(string, error)   { h.selfHeals.Inc() }
func (h *Hooks) SetRejected(string)       { h.setRejected.Inc() }

func (h *Hooks) StoreError(id, op string, _ error) {
	h.storeErrors.WithLabelValues(id, op).Inc()
}

func (h *Hooks) InvalidateError(id, op string, _ error) {
	h.invalidateErrs.WithLabelValues(id, op).Inc()
}
