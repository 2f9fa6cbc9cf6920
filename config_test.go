package tiercache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	pr "github.com/unkn0wn-root/tiercache/provider"
	"github.com/unkn0wn-root/tiercache/provider/memory"
	"github.com/unkn0wn-root/tiercache/provider/ristretto"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
default_ttl: 10m
fan_out: best_effort
coalesce: true
tiers:
  - kind: ristretto
    ttl: 30s
    ristretto: {num_counters: 1000, max_cost: 100, buffer_items: 64, sync: true}
  - kind: bigcache
    bigcache: {life_window: 5m, shards: 16}
  - kind: redis
    redis: {addrs: ["127.0.0.1:6379"], prefix: "app:"}
`))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.DefaultTTL != 10*time.Minute || cfg.FanOut != BestEffort || !cfg.Coalesce {
		t.Fatalf("top-level fields: %+v", cfg)
	}
	if len(cfg.Tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(cfg.Tiers))
	}
	if cfg.Tiers[0].Kind != pr.KindRistretto || cfg.Tiers[0].TTL != 30*time.Second || !cfg.Tiers[0].Ristretto.Sync {
		t.Fatalf("tier 0: %+v", cfg.Tiers[0])
	}
	if cfg.Tiers[1].BigCache.LifeWindow != 5*time.Minute {
		t.Fatalf("tier 1: %+v", cfg.Tiers[1].BigCache)
	}
	if cfg.Tiers[2].Redis.Prefix != "app:" {
		t.Fatalf("tier 2: %+v", cfg.Tiers[2].Redis)
	}
}

func TestParseConfigRejectsUnknownFields(t *testing.T) {
	_, err := ParseConfig([]byte("tiers:\n  - kind: memory\n    colour: blue\n"))
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestNewFromConfigBuildsAllKinds(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	yml := fmt.Sprintf(`
tiers:
  - kind: memory
  - kind: ristretto
    ristretto: {num_counters: 1000, max_cost: 1000, buffer_items: 64, sync: true}
  - kind: bigcache
    bigcache: {life_window: 1m, shards: 16}
  - kind: redis
    ttl: 1h
    redis: {addrs: [%q], prefix: "cfg:"}
  - kind: sqlite
    sqlite: {path: %q}
`, mr.Addr(), filepath.Join(t.TempDir(), "tier.db"))

	cfg, err := ParseConfig([]byte(yml))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	c, err := NewFromConfig(ctx, cfg, Options{})
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	defer c.Close(ctx)

	if c.Tiers() != 5 {
		t.Fatalf("expected 5 tiers, got %d", c.Tiers())
	}
	wantKinds := []pr.Kind{pr.KindMemory, pr.KindRistretto, pr.KindBigCache, pr.KindRedis, pr.KindSQLite}
	for i, k := range wantKinds {
		if c.tiers[i].kind != k {
			t.Fatalf("tier %d kind = %s, want %s", i, c.tiers[i].kind, k)
		}
	}

	v, err := c.GetOrSet(ctx, "u1", func(context.Context) ([]byte, error) { return []byte("p1"), nil })
	if err != nil || string(v) != "p1" {
		t.Fatalf("GetOrSet: v=%q err=%v", v, err)
	}
	for i, tr := range c.tiers {
		got, ok, err := tr.p.Get(ctx, "u1")
		if err != nil || !ok || string(got) != "p1" {
			t.Fatalf("tier %d (%s): ok=%v err=%v got=%q", i, tr.kind, ok, err, got)
		}
	}
	if ttl := mr.TTL("cfg:u1"); ttl != time.Hour {
		t.Fatalf("redis ttl = %s, want per-tier 1h", ttl)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "u1"); ok {
		t.Fatalf("expected miss after Clear")
	}
}

func TestNewFromConfigErrors(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		cfg  Config
		opts Options
		tier int
	}{
		{name: "no_tiers", cfg: Config{}, tier: -1},
		{name: "unknown_kind", cfg: Config{Tiers: []TierConfig{{Kind: pr.KindMemory}, {Kind: "memcached"}}}, tier: 1},
		{name: "missing_section", cfg: Config{Tiers: []TierConfig{{Kind: pr.KindRistretto}}}, tier: 0},
		{name: "bad_section", cfg: Config{Tiers: []TierConfig{{Kind: pr.KindMemory}, {Kind: pr.KindRistretto, Ristretto: &ristretto.Config{}}}}, tier: 1},
		{name: "prebuilt_and_config", cfg: Config{Tiers: []TierConfig{{Kind: pr.KindMemory}}},
			opts: Options{Tiers: []pr.Provider{memory.New()}}, tier: -1},
		{name: "bad_fan_out", cfg: Config{Tiers: []TierConfig{{Kind: pr.KindMemory}}, FanOut: "maybe"}, tier: -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFromConfig(ctx, tc.cfg, tc.opts)
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
			}
			if ce.Tier != tc.tier {
				t.Fatalf("error tier = %d, want %d (%v)", ce.Tier, tc.tier, err)
			}
		})
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := &ConfigurationError{Tier: 2, Reason: "ristretto", Err: errMissingSection}
	if !strings.Contains(err.Error(), "tier 2") || !errors.Is(err, errMissingSection) {
		t.Fatalf("unexpected error: %v", err)
	}
}
