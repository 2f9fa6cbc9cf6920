// Package sloghooks reports tiercache events through log/slog, with
// sampling for the hot-path events and key redaction.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/tiercache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitEvery      uint64
	MissEvery     uint64
	PromoteEvery  uint64
	SelfHealEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr      atomic.Uint64
	missCtr     atomic.Uint64
	promoteCtr  atomic.Uint64
	selfHealCtr atomic.Uint64
}

var _ tiercache.Hooks = (*Hooks)(nil)

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

func (h *Hooks) TierHit(tier int, key string) {
	if h.l == nil || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("tiercache.tier_hit",
		"key", h.redact(key),
		"tier", tier)
}

func (h *Hooks) Miss(key string) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("tiercache.miss",
		"key", h.redact(key))
}

func (h *Hooks) Promoted(key string, fromTier, count int) {
	if h.l == nil || !sample(h.opts.PromoteEvery, &h.promoteCtr) {
		return
	}
	h.l.Debug("tiercache.promoted",
		"key", h.redact(key),
		"from_tier", fromTier,
		"count", count)
}

func (h *Hooks) SetRejected(tier int, key string) {
	if h.l == nil {
		return
	}
	h.l.Warn("tiercache.set_rejected",
		"key", h.redact(key),
		"tier", tier)
}

func (h *Hooks) TierError(op tiercache.Op, tier int, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("tiercache.tier_error",
		"op", string(op),
		"tier", tier,
		"err", err)
}

func (h *Hooks) ProducerFailed(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("tiercache.producer_failed",
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) SelfHeal(key, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Info("tiercache.self_heal",
		"key", h.redact(key),
		"reason", reason)
}
