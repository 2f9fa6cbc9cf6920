package bigcache

import (
	"context"
	"testing"
	"time"
)

func TestRoundTripAndIdempotentDel(t *testing.T) {
	ctx := context.Background()
	p, err := New(Config{LifeWindow: time.Minute, Shards: 16})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close(ctx)

	if _, hit, err := p.Get(ctx, "k"); err != nil || hit {
		t.Fatalf("expected clean miss, hit=%v err=%v", hit, err)
	}
	if ok, err := p.Set(ctx, "k", []byte("v"), 1, 0); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	v, hit, err := p.Get(ctx, "k")
	if err != nil || !hit || string(v) != "v" {
		t.Fatalf("Get: hit=%v err=%v v=%q", hit, err, v)
	}
	for i := 0; i < 2; i++ {
		if err := p.Del(ctx, "k"); err != nil {
			t.Fatalf("Del #%d: %v", i, err)
		}
	}
}

func TestClearResets(t *testing.T) {
	ctx := context.Background()
	p, err := New(Config{LifeWindow: time.Minute, Shards: 16})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close(ctx)

	_, _ = p.Set(ctx, "a", []byte("1"), 1, 0)
	if err := p.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, hit, _ := p.Get(ctx, "a"); hit {
		t.Fatalf("expected miss after Clear")
	}
}
