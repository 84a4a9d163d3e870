// Package errs defines the error taxonomy shared across the midirt runtime:
// backends, buses, and the master bus all report failures through a small
// set of Kinds rather than ad-hoc error strings.
package errs

import "fmt"

// Kind classifies a runtime failure. Kinds never change meaning across
// releases; add new ones rather than repurposing an existing value.
type Kind int

const (
	// Warning is non-fatal and only logged.
	Warning Kind = iota
	// NoDeviceFound means a backend detected no usable device or port.
	NoDeviceFound
	// InvalidDevice means an index was out of range.
	InvalidDevice
	// MemoryError means an allocation failed.
	MemoryError
	// InvalidParameter means a precondition on arguments was violated.
	InvalidParameter
	// InvalidUse means a method call order violated the state machine.
	InvalidUse
	// DriverError means the host MIDI subsystem reported an error.
	DriverError
	// SystemError means an OS-level resource error (pipe, thread, etc.).
	SystemError
	// ThreadError means a reader/writer thread could not start or join.
	ThreadError
)

func (k Kind) String() string {
	switch k {
	case Warning:
		return "warning"
	case NoDeviceFound:
		return "no-device-found"
	case InvalidDevice:
		return "invalid-device"
	case MemoryError:
		return "memory-error"
	case InvalidParameter:
		return "invalid-parameter"
	case InvalidUse:
		return "invalid-use"
	case DriverError:
		return "driver-error"
	case SystemError:
		return "system-error"
	case ThreadError:
		return "thread-error"
	default:
		return "unknown"
	}
}

// Error is the error type returned across the public boundary. Constructors
// and public operations never panic; they return an *Error (often wrapped
// in a bool-returning API) and leave the caller's object unchanged.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "alsa.OpenPort"
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no underlying cause.
func New(op string, kind Kind) *Error {
	return &Error{Op: op, Kind: kind}
}

// Wrap builds an *Error around an underlying cause.
func Wrap(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Callback is the error-reporting channel a ClientInfo carries. Backends
// and buses call it instead of returning an error from contexts (real-time
// callbacks, constructors) where a synchronous error return isn't possible.
type Callback func(e *Error)

// NopCallback discards every error. It is the default when no callback is
// configured, so that code calling Report never needs a nil check.
func NopCallback(*Error) {}
