// Package sloghooks logs memocache hook events to a *slog.Logger.
// Hit and Miss are too frequent to log and are ignored; pair with hooks/prom or
// hooks/otel for rates.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/memocache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery   uint64
	StoreErrorEvery uint64
	BypassEvery     uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr   atomic.Uint64
	storeErrorCtr atomic.Uint64
	bypassCtr     atomic.Uint64
}

var _ memocache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Hit(string)  {}
func (h *Hooks) Miss(string) {}

func (h *Hooks) Bypass(identity string) {
	if h.l == nil || !sample(h.opts.BypassEvery, &h.bypassCtr) {
		return
	}
	h.l.Debug("memocache.bypass", "identity", identity)
}

func (h *Hooks) StoreError(identity, op string, err error) {
	if h.l == nil || !sample(h.opts.StoreErrorEvery, &h.storeErrorCtr) {
		return
	}
	h.l.Warn("memocache.store_error",
		"identity", identity,
		"op", op,
		"err", err)
}

func (h *Hooks) SelfHeal(storageKey string, err error) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("memocache.self_heal",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) SetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("memocache.set_rejected", "key", h.redact(storageKey))
}

func (h *Hooks) VersionCreated(identity string) {
	if h.l == nil {
		return
	}
	h.l.Info("memocache.version_created", "identity", identity)
}

func (h *Hooks) VersionBumped(identity string) {
	if h.l == nil {
		return
	}
	h.l.Info("memocache.version_bumped", "identity", identity)
}

func (h *Hooks) InvalidateError(identity, op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("memocache.invalidate_error",
		"identity", identity,
		"op", op,
		"err", err)
}
