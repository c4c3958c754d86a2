// Package otelhooks records memocache hook events as OpenTelemetry counters.
package otelhooks

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/unkn0wn-root/memocache"
)

const (
	attrIdentity = "memocache.identity"
	attrOp       = "memocache.op"
)

// Hooks adds one to a counter per event. Hooks carry no context, so
// measurements are recorded with context.Background.
type Hooks struct {
	lookups     metric.Int64Counter // result=hit|miss|bypass
	storeErrors metric.Int64Counter
	selfHeals   metric.Int64Counter
	rejected    metric.Int64Counter
	versions    metric.Int64Counter // event=created|bumped
	invErrors   metric.Int64Counter
}

var _ memocache.Hooks = (*Hooks)(nil)

func New(meter metric.Meter) (*Hooks, error) {
	var (
		h   Hooks
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&h.lookups, "memocache.lookups", "Memoized calls by result"},
		{&h.storeErrors, "memocache.store.errors", "Cache failures that fell back to a direct call"},
		{&h.selfHeals, "memocache.self_heals", "Undecodable entries deleted on read"},
		{&h.rejected, "memocache.set.rejected", "Writes rejected by the provider"},
		{&h.versions, "memocache.versions", "Version token events"},
		{&h.invErrors, "memocache.invalidate.errors", "Swallowed invalidation failures"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("{event}"))
		if err != nil {
			return nil, err
		}
	}
	return &h, nil
}

func (h *Hooks) lookup(id, result string) {
	h.lookups.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(attrIdentity, id),
		attribute.String("memocache.result", result),
	))
}

func (h *Hooks) version(id, event string) {
	h.versions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(attrIdentity, id),
		attribute.String("memocache.event", event),
	))
}

func (h *Hooks) Hit(id string)            { h.lookup(id, "hit") }
func (h *Hooks) Miss(id string)           { h.lookup(id, "miss") }
func (h *Hooks) Bypass(id string)         { h.lookup(id, "bypass") }
func (h *Hooks) VersionCreated(id string) { h.version(id, "created") }
func (h *Hooks) VersionBumped(id string)  { h.version(id, "bumped") }

func (h *Hooks) SelfHeal(string, error) { h.selfHeals.Add(context.Background(), 1) }
func (h *Hooks) SetRejected(string)     { h.rejected.Add(context.Background(), 1) }

func (h *Hooks) StoreError(id, op string, _ error) {
	h.storeErrors.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(attrIdentity, id),
		attribute.String(attrOp, op),
	))
}

func (h *Hooks) InvalidateError(id, op string, _ error) {
	h.invErrors.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(attrIdentity, id),
		attribute.String(attrOp, op),
	))
}
