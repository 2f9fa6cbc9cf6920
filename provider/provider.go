// Package provider defines the tier abstraction used by tiercache.
//
// A tier is any byte store that can answer Get/Set/Del. Presence is reported
// through the bool result: (v, true, nil) is a hit even when v is empty or nil,
// and (nil, false, nil) is a miss. Implementations own their storage,
// eviction and expiration; tiercache never assumes it is the only writer.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs.
// Implementations must not prepend/append metadata, transcode, or otherwise
// mutate values.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key. Removing an absent key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Clearer is implemented by providers that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Kinder reports which registered backend family a provider belongs to.
type Kinder interface {
	Kind() Kind
}
