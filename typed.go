package tiercache

import (
	"context"
	"errors"

	"github.com/unkn0wn-root/tiercache/codec"
)

// Typed is a value-level view of a Cache. Tiers still store opaque bytes;
// the codec runs in the caller's goroutine.
type Typed[V any] struct {
	c     *Cache
	codec codec.Codec[V]
}

func NewTyped[V any](c *Cache, cd codec.Codec[V]) (*Typed[V], error) {
	if c == nil {
		return nil, errors.New("tiercache: typed: cache is required")
	}
	if cd == nil {
		return nil, errors.New("tiercache: typed: codec is required")
	}
	return &Typed[V]{c: c, codec: cd}, nil
}

// Cache returns the underlying byte-level cache.
func (t *Typed[V]) Cache() *Cache { return t.c }

// Get returns (v, true, nil) on hit. An entry that does not decode is
// removed from every tier and reported as a miss.
func (t *Typed[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	raw, ok, err := t.c.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := t.codec.Decode(raw)
	if err != nil {
		t.heal(ctx, key, err)
		return zero, false, nil
	}
	return v, true, nil
}

func (t *Typed[V]) Set(ctx context.Context, key string, v V) error {
	raw, err := t.codec.Encode(v)
	if err != nil {
		return err
	}
	return t.c.SetValue(ctx, key, raw)
}

func (t *Typed[V]) Del(ctx context.Context, key string) error {
	return t.c.Del(ctx, key)
}

// GetOrSet is Cache.GetOrSet over values. produce errors (and encode errors)
// surface as *ProducerError.
func (t *Typed[V]) GetOrSet(ctx context.Context, key string, produce func(ctx context.Context) (V, error)) (V, error) {
	var zero V
	if produce == nil {
		return zero, ErrNilProducer
	}
	for attempt := 0; ; attempt++ {
		var (
			produced V
			ran      bool
		)
		raw, err := t.c.GetOrSet(ctx, key, func(ctx context.Context) ([]byte, error) {
			v, err := produce(ctx)
			if err != nil {
				return nil, err
			}
			b, err := t.codec.Encode(v)
			if err != nil {
				return nil, err
			}
			produced, ran = v, true
			return b, nil
		})
		if ran {
			if err != nil && t.c.fanOut == FailFast {
				return zero, err
			}
			// BestEffort may pair a fresh value with tier errors.
			return produced, err
		}
		if raw == nil && err != nil {
			return zero, err
		}
		v, derr := t.codec.Decode(raw)
		if derr == nil {
			return v, err
		}
		if attempt > 0 {
			return zero, derr
		}
		t.heal(ctx, key, derr)
	}
}

func (t *Typed[V]) heal(ctx context.Context, key string, cause error) {
	t.c.hooks.SelfHeal(key, "value_decode")
	t.c.log.Debug("dropping undecodable entry", Fields{"key": key, "err": cause})
	if err := t.c.Del(ctx, key); err != nil {
		t.c.log.Warn("self-heal delete failed", Fields{"key": key, "err": err})
	}
}
