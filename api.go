package tiercache

import (
	"context"
	"time"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

// Op names a tier primitive in errors and hooks.
type Op string

const (
	OpGet   Op = "get"
	OpSet   Op = "set"
	OpDel   Op = "del"
	OpClear Op = "clear"
	OpClose Op = "close"
)

// FanOutPolicy decides what a multi-tier write does when one tier fails.
type FanOutPolicy string

const (
	// FailFast stops at the first failing tier. Tiers before it keep the
	// write; tiers after it are not attempted. Default.
	FailFast FanOutPolicy = "fail_fast"
	// BestEffort attempts every tier and returns all failures combined.
	BestEffort FanOutPolicy = "best_effort"
)

func (p FanOutPolicy) valid() bool {
	return p == FailFast || p == BestEffort
}

// Producer computes a value for a key that no tier holds.
type Producer func(ctx context.Context) ([]byte, error)

// SetCostFunc returns the cost passed to tier's Set (Ristretto admission).
type SetCostFunc func(key string, value []byte, tier int) int64

// Options configure a Cache. Only Tiers is required.
type Options struct {
	// Tiers in probe order; index 0 is the fastest.
	Tiers []pr.Provider

	Logger         Logger        // if nil, NopLogger is used
	Hooks          Hooks         // if nil, NopHooks is used
	DefaultTTL     time.Duration // passed to tiers when a call has none; 0 => tier default
	FanOut         FanOutPolicy  // "" => FailFast
	ComputeSetCost SetCostFunc   // default 1
	Disabled       bool          // default false (enabled)

	// Coalesce makes concurrent GetOrSet misses on one key share a single
	// producer call (per Cache).
	Coalesce bool

	// AllowUnregistered accepts tiers whose kind is not in the provider
	// registry (custom stores).
	AllowUnregistered bool

	// OwnTiers makes Close close every tier. Tiers are often shared, so the
	// default leaves them open.
	OwnTiers bool
}

func New(opts Options) (*Cache, error) {
	return newCache(opts, nil)
}
