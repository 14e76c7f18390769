// Package errkind classifies errors by the taxonomy in spec §7, without
// introducing an exception hierarchy: any error can carry a Kind by
// wrapping it in a Classified value.
package errkind

import "errors"

// Kind is one of the error taxonomy entries from spec §7.
type Kind int

const (
	Unknown Kind = iota
	Validation
	NotFound
	Forbidden
	TransientNetwork
	CircuitOpen
	StoreTimeout
	StoreConstraint
	Cancelled
	FatalConfig
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not-found"
	case Forbidden:
		return "forbidden"
	case TransientNetwork:
		return "transient-network"
	case CircuitOpen:
		return "circuit-open"
	case StoreTimeout:
		return "store-timeout"
	case StoreConstraint:
		return "store-constraint"
	case Cancelled:
		return "cancelled"
	case FatalConfig:
		return "fatal-config"
	default:
		return "unknown"
	}
}

// Classified pairs an error with its taxonomy kind.
type Classified struct {
	kind Kind
	err  error
}

// New wraps err with kind.
func New(kind Kind, err error) *Classified {
	return &Classified{kind: kind, err: err}
}

func (c *Classified) Error() string { return c.err.Error() }
func (c *Classified) Unwrap() error { return c.err }
func (c *Classified) Kind() Kind    { return c.kind }

// KindOf returns the Kind of err if it (or something it wraps) is
// Classified, else Unknown.
func KindOf(err error) Kind {
	var c *Classified
	if errors.As(err, &c) {
		return c.kind
	}
	return Unknown
}
