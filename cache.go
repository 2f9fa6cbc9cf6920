package tiercache

import (
	"context"
	"reflect"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

type tier struct {
	p    pr.Provider
	kind pr.Kind
	ttl  time.Duration
}

// Cache probes tiers in order and keeps faster tiers populated.
// The tier list is fixed at construction.
type Cache struct {
	tiers   []tier
	log     Logger
	hooks   Hooks
	enabled bool
	fanOut  FanOutPolicy
	cost    SetCostFunc
	owns    bool
	asc     []int // 0..N-1

	sf        *singleflight.Group // nil unless Options.Coalesce
	closeOnce sync.Once
	closeErr  error
}

var (
	_ pr.Provider = (*Cache)(nil)
	_ pr.Clearer  = (*Cache)(nil)
	_ pr.Kinder   = (*Cache)(nil)
)

// ttls, when non-nil, carries a per-tier TTL overriding DefaultTTL.
func newCache(opts Options, ttls []time.Duration) (*Cache, error) {
	if len(opts.Tiers) == 0 {
		return nil, &ConfigurationError{Tier: -1, Reason: "at least one tier is required"}
	}
	fanOut := coalesce(opts.FanOut, FailFast)
	if !fanOut.valid() {
		return nil, &ConfigurationError{Tier: -1, Reason: "unknown fan-out policy " + string(fanOut)}
	}

	c := &Cache{
		tiers:   make([]tier, len(opts.Tiers)),
		enabled: !opts.Disabled,
		fanOut:  fanOut,
		owns:    opts.OwnTiers,
		asc:     make([]int, len(opts.Tiers)),
	}
	for i, p := range opts.Tiers {
		c.asc[i] = i
		if isNil(p) {
			return nil, &InvalidHandleError{Index: i}
		}
		kind := pr.KindOf(p)
		if !pr.Known(kind) && !opts.AllowUnregistered {
			return nil, &UnsupportedBackendError{Index: i, Kind: kind}
		}
		ttl := opts.DefaultTTL
		if i < len(ttls) && ttls[i] > 0 {
			ttl = ttls[i]
		}
		c.tiers[i] = tier{p: p, kind: kind, ttl: ttl}
	}

	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	if opts.ComputeSetCost != nil {
		c.cost = opts.ComputeSetCost
	} else {
		c.cost = func(string, []byte, int) int64 { return 1 }
	}
	if opts.Coalesce {
		c.sf = &singleflight.Group{}
	}
	return c, nil
}

func isNil(p pr.Provider) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func (c *Cache) Kind() pr.Kind { return pr.KindTiered }
func (c *Cache) Enabled() bool { return c.enabled }
func (c *Cache) Tiers() int    { return len(c.tiers) }

// Get returns the value from the first tier that holds key. It never writes.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !c.enabled {
		return nil, false, nil
	}
	v, _, ok, err := c.probe(ctx, key)
	return v, ok, err
}

// GetOrSet returns the value for key from the first tier that holds it and
// promotes it into every faster tier. When no tier holds key, produce runs
// exactly once and its value is written to every tier.
//
// If produce fails nothing is written and a *ProducerError is returned.
// Under FailFast a tier failure returns (nil, err); under BestEffort the
// value is returned together with the combined tier errors.
//
// With Options.Coalesce, concurrent callers for the same key share the
// first caller's ctx and produce.
func (c *Cache) GetOrSet(ctx context.Context, key string, produce Producer) ([]byte, error) {
	if produce == nil {
		return nil, ErrNilProducer
	}
	if !c.enabled {
		v, err := produce(ctx)
		if err != nil {
			c.hooks.ProducerFailed(key, err)
			return nil, &ProducerError{Key: key, Err: err}
		}
		return v, nil
	}
	if c.sf == nil {
		return c.getOrSet(ctx, key, produce)
	}
	res, err, _ := c.sf.Do(key, func() (any, error) {
		return c.getOrSet(ctx, key, produce)
	})
	v, _ := res.([]byte)
	return v, err
}

func (c *Cache) getOrSet(ctx context.Context, key string, produce Producer) ([]byte, error) {
	v, at, ok, err := c.probe(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok {
		if at == 0 {
			return v, nil
		}
		return c.settle(v, c.promote(ctx, key, v, at))
	}

	v, err = produce(ctx)
	if err != nil {
		c.hooks.ProducerFailed(key, err)
		return nil, &ProducerError{Key: key, Err: err}
	}
	_, err = c.write(ctx, key, v, 0, 0, c.asc)
	return c.settle(v, err)
}

func (c *Cache) settle(v []byte, err error) ([]byte, error) {
	if err != nil && c.fanOut == FailFast {
		return nil, err
	}
	return v, err
}

// probe returns the value and index of the first tier holding key.
func (c *Cache) probe(ctx context.Context, key string) ([]byte, int, bool, error) {
	for i, t := range c.tiers {
		v, ok, err := t.p.Get(ctx, key)
		if err != nil {
			return nil, -1, false, c.tierErr(OpGet, i, key, err)
		}
		if ok {
			c.hooks.TierHit(i, key)
			return v, i, true, nil
		}
	}
	c.hooks.Miss(key)
	return nil, -1, false, nil
}

// promote writes v into tiers at-1 down to 0.
func (c *Cache) promote(ctx context.Context, key string, v []byte, at int) error {
	order := make([]int, 0, at)
	for i := at - 1; i >= 0; i-- {
		order = append(order, i)
	}
	if _, err := c.write(ctx, key, v, 0, 0, order); err != nil {
		return err
	}
	c.hooks.Promoted(key, at, at)
	c.log.Debug("promoted value to faster tiers", Fields{"key": key, "from": at})
	return nil
}

// Set writes value to every tier in order, regardless of what they hold.
// ok is false when at least one tier rejected the write under pressure.
// cost<=0 uses Options.ComputeSetCost; ttl<=0 uses the tier's TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	if !c.enabled {
		return true, nil
	}
	return c.write(ctx, key, value, cost, ttl, c.asc)
}

// SetValue is Set with default cost and TTL.
func (c *Cache) SetValue(ctx context.Context, key string, value []byte) error {
	_, err := c.Set(ctx, key, value, 0, 0)
	return err
}

func (c *Cache) write(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration, order []int) (bool, error) {
	allOK := true
	err := c.each(OpSet, key, order, func(i int, t tier) error {
		tc := cost
		if tc <= 0 {
			tc = c.cost(key, value, i)
		}
		tt := ttl
		if tt <= 0 {
			tt = t.ttl
		}
		ok, err := t.p.Set(ctx, key, value, tc, tt)
		if err != nil {
			return err
		}
		if !ok {
			allOK = false
			c.hooks.SetRejected(i, key)
			c.log.Debug("set rejected by tier (pressure)", Fields{"key": key, "tier": i})
		}
		return nil
	})
	return allOK, err
}

// Del removes key from every tier in order. Absent keys are not an error.
func (c *Cache) Del(ctx context.Context, key string) error {
	if !c.enabled {
		return nil
	}
	return c.each(OpDel, key, c.asc, func(_ int, t tier) error {
		return t.p.Del(ctx, key)
	})
}

// Clear empties every tier that implements provider.Clearer; others are skipped.
func (c *Cache) Clear(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	return c.each(OpClear, "", c.asc, func(i int, t tier) error {
		cl, ok := t.p.(pr.Clearer)
		if !ok {
			c.log.Debug("tier cannot clear; skipped", Fields{"tier": i, "kind": string(t.kind)})
			return nil
		}
		return cl.Clear(ctx)
	})
}

// Close closes the tiers if the cache owns them (Options.OwnTiers or
// NewFromConfig). Every tier is attempted. Repeated calls return the first
// result.
func (c *Cache) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		if !c.owns {
			return
		}
		for i, t := range c.tiers {
			if err := t.p.Close(ctx); err != nil {
				c.closeErr = multierr.Append(c.closeErr, c.tierErr(OpClose, i, "", err))
			}
		}
	})
	return c.closeErr
}

// each runs fn on tiers in order under the fan-out policy.
func (c *Cache) each(op Op, key string, order []int, fn func(i int, t tier) error) error {
	var errs error
	for _, i := range order {
		if err := fn(i, c.tiers[i]); err != nil {
			te := c.tierErr(op, i, key, err)
			if c.fanOut == FailFast {
				return te
			}
			errs = multierr.Append(errs, te)
		}
	}
	return errs
}

func (c *Cache) tierErr(op Op, i int, key string, err error) error {
	c.hooks.TierError(op, i, err)
	c.log.Warn("tier call failed", Fields{"op": string(op), "tier": i, "key": key, "err": err})
	return &BackendError{Op: op, Tier: i, Kind: c.tiers[i].kind, Key: key, Err: err}
}
