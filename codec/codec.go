// Package codec converts typed values to the opaque bytes tiers store.
// Tiers never see V; only tiercache.Typed does.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
