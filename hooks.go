package tiercache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths, synchronously.
type Hooks interface {
	// A read found key in tier.
	TierHit(tier int, key string)

	// No tier holds key.
	Miss(key string)

	// A value found in fromTier was written into count faster tiers.
	Promoted(key string, fromTier, count int)

	// A tier returned ok=false on Set (backpressure/admission).
	SetRejected(tier int, key string)

	// A tier call failed.
	TierError(op Op, tier int, err error)

	// The GetOrSet producer returned an error; nothing was written.
	ProducerFailed(key string, err error)

	// Typed dropped an entry it could not decode.
	// reason ∈ {"value_decode"}
	SelfHeal(key, reason string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) TierHit(int, string)          {}
func (NopHooks) Miss(string)                  {}
func (NopHooks) Promoted(string, int, int)    {}
func (NopHooks) SetRejected(int, string)      {}
func (NopHooks) TierError(Op, int, error)     {}
func (NopHooks) ProducerFailed(string, error) {}
func (NopHooks) SelfHeal(string, string)      {}
