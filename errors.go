package tiercache

import (
	"errors"
	"fmt"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

var ErrNilProducer = errors.New("tiercache: producer is required")

// ConfigurationError reports an unusable tier list or tier descriptor.
// Tier is -1 when the problem is not tied to one tier.
type ConfigurationError struct {
	Tier   int
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "tiercache: configuration"
	if e.Tier >= 0 {
		msg += fmt.Sprintf(": tier %d", e.Tier)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// UnsupportedBackendError: a pre-built tier does not belong to a registered
// backend kind. Kind is empty when the tier does not report one.
type UnsupportedBackendError struct {
	Index int
	Kind  pr.Kind
}

func (e *UnsupportedBackendError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("tiercache: tier %d: backend does not report a kind", e.Index)
	}
	return fmt.Sprintf("tiercache: tier %d: unsupported backend kind %q", e.Index, e.Kind)
}

// InvalidHandleError: a supplied tier is nil.
type InvalidHandleError struct {
	Index int
}

func (e *InvalidHandleError) Error() string {
	return fmt.Sprintf("tiercache: tier %d: nil backend handle", e.Index)
}

// ProducerError wraps a failure of the GetOrSet producer. No tier was written.
type ProducerError struct {
	Key string
	Err error
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("tiercache: produce %q: %v", e.Key, e.Err)
}

func (e *ProducerError) Unwrap() error { return e.Err }

// BackendError wraps a failure returned by one tier.
type BackendError struct {
	Op   Op
	Tier int
	Kind pr.Kind
	Key  string
	Err  error
}

func (e *BackendError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "custom"
	}
	if e.Key == "" {
		return fmt.Sprintf("tiercache: %s on tier %d (%s): %v", e.Op, e.Tier, kind, e.Err)
	}
	return fmt.Sprintf("tiercache: %s %q on tier %d (%s): %v", e.Op, e.Key, e.Tier, kind, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
