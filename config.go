package tiercache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	pr "github.com/unkn0wn-root/tiercache/provider"
	"github.com/unkn0wn-root/tiercache/provider/bigcache"
	"github.com/unkn0wn-root/tiercache/provider/memory"
	"github.com/unkn0wn-root/tiercache/provider/redis"
	"github.com/unkn0wn-root/tiercache/provider/ristretto"
	"github.com/unkn0wn-root/tiercache/provider/sqlite"
)

// Config describes a tier list declaratively, e.g. from YAML:
//
//	default_ttl: 10m
//	fan_out: fail_fast
//	tiers:
//	  - kind: ristretto
//	    ttl: 1m
//	    ristretto: {num_counters: 100000, max_cost: 10000, buffer_items: 64}
//	  - kind: redis
//	    redis: {addrs: ["localhost:6379"], prefix: "app:"}
type Config struct {
	Tiers      []TierConfig  `yaml:"tiers"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
	FanOut     FanOutPolicy  `yaml:"fan_out"`
	Coalesce   bool          `yaml:"coalesce"`
}

// TierConfig selects a backend by Kind; only the matching section is read.
type TierConfig struct {
	Kind pr.Kind       `yaml:"kind"`
	TTL  time.Duration `yaml:"ttl"` // overrides DefaultTTL for this tier

	Ristretto *ristretto.Config `yaml:"ristretto,omitempty"`
	BigCache  *bigcache.Config  `yaml:"bigcache,omitempty"`
	Redis     *RedisConfig      `yaml:"redis,omitempty"`
	SQLite    *sqlite.Config    `yaml:"sqlite,omitempty"`
}

type RedisConfig struct {
	Addrs       []string      `yaml:"addrs"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	Prefix      string        `yaml:"prefix"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// LoadConfig decodes YAML. Unknown fields are rejected.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &ConfigurationError{Tier: -1, Reason: "decode", Err: err}
	}
	return cfg, nil
}

func ParseConfig(b []byte) (Config, error) {
	return LoadConfig(bytes.NewReader(b))
}

type factory func(ctx context.Context, tc TierConfig) (pr.Provider, error)

var errMissingSection = errors.New("missing backend section")

var factories = map[pr.Kind]factory{
	pr.KindMemory: func(context.Context, TierConfig) (pr.Provider, error) {
		return memory.New(), nil
	},
	pr.KindRistretto: func(_ context.Context, tc TierConfig) (pr.Provider, error) {
		if tc.Ristretto == nil {
			return nil, errMissingSection
		}
		return ristretto.New(*tc.Ristretto)
	},
	pr.KindBigCache: func(_ context.Context, tc TierConfig) (pr.Provider, error) {
		if tc.BigCache == nil {
			return nil, errMissingSection
		}
		return bigcache.New(*tc.BigCache)
	},
	pr.KindRedis: func(_ context.Context, tc TierConfig) (pr.Provider, error) {
		rc := tc.Redis
		if rc == nil || len(rc.Addrs) == 0 {
			return nil, errMissingSection
		}
		client := goredis.NewUniversalClient(&goredis.UniversalOptions{
			Addrs:       rc.Addrs,
			Username:    rc.Username,
			Password:    rc.Password,
			DB:          rc.DB,
			DialTimeout: rc.DialTimeout,
		})
		return redis.New(redis.Config{Client: client, Prefix: rc.Prefix, CloseClient: true})
	},
	pr.KindSQLite: func(ctx context.Context, tc TierConfig) (pr.Provider, error) {
		if tc.SQLite == nil {
			return nil, errMissingSection
		}
		return sqlite.Open(ctx, *tc.SQLite)
	},
}

// NewFromConfig builds every tier from cfg and returns a Cache that owns
// them. Non-zero cfg fields override the matching opts fields; opts.Tiers
// must be empty. If a tier fails to build, the ones already built are closed.
func NewFromConfig(ctx context.Context, cfg Config, opts Options) (*Cache, error) {
	if len(opts.Tiers) > 0 {
		return nil, &ConfigurationError{Tier: -1, Reason: "Options.Tiers must be empty when building from config"}
	}
	if len(cfg.Tiers) == 0 {
		return nil, &ConfigurationError{Tier: -1, Reason: "at least one tier is required"}
	}

	built := make([]pr.Provider, 0, len(cfg.Tiers))
	ttls := make([]time.Duration, 0, len(cfg.Tiers))
	fail := func(err error) (*Cache, error) {
		for _, p := range built {
			_ = p.Close(ctx)
		}
		return nil, err
	}

	for i, tc := range cfg.Tiers {
		f, ok := factories[tc.Kind]
		if !ok {
			return fail(&ConfigurationError{Tier: i, Reason: fmt.Sprintf("unknown kind %q", tc.Kind)})
		}
		p, err := f(ctx, tc)
		if err != nil {
			return fail(&ConfigurationError{Tier: i, Reason: string(tc.Kind), Err: err})
		}
		built = append(built, p)
		ttls = append(ttls, tc.TTL)
	}

	opts.Tiers = built
	opts.OwnTiers = true
	opts.DefaultTTL = coalesce(cfg.DefaultTTL, opts.DefaultTTL)
	opts.FanOut = coalesce(cfg.FanOut, opts.FanOut)
	opts.Coalesce = opts.Coalesce || cfg.Coalesce

	c, err := newCache(opts, ttls)
	if err != nil {
		return fail(err)
	}
	return c, nil
}
