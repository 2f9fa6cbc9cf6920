package prom

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/tiercache"
	pr "github.com/unkn0wn-root/tiercache/provider"
	"github.com/unkn0wn-root/tiercache/provider/memory"
)

func TestHooksCountCacheTraffic(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New(reg, "app", "users")
	require.NoError(t, err)

	fast, slow := memory.New(), memory.New()
	c, err := tiercache.New(tiercache.Options{Tiers: []pr.Provider{fast, slow}, Hooks: h})
	require.NoError(t, err)

	ctx := context.Background()
	produce := func(context.Context) ([]byte, error) { return []byte("p1"), nil }

	_, err = c.GetOrSet(ctx, "u1", produce) // miss, fill both
	require.NoError(t, err)
	require.NoError(t, fast.Del(ctx, "u1"))
	_, err = c.GetOrSet(ctx, "u1", produce) // hit tier 1, promote
	require.NoError(t, err)
	_, err = c.GetOrSet(ctx, "u1", produce) // hit tier 0
	require.NoError(t, err)
	_, err = c.GetOrSet(ctx, "u2", func(context.Context) ([]byte, error) { return nil, errors.New("db") })
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(h.misses))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.hits.WithLabelValues("0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.hits.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.promotions.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.producerErrors))
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, "app", "users")
	require.NoError(t, err)
	_, err = New(reg, "app", "users")
	assert.Error(t, err)
}
