// Package apperr classifies dashboard failures so embedding applications can
// decide how to surface them.
package apperr

import "errors"

type Kind string

const (
	// InputMissing: rejected locally before any network call.
	InputMissing Kind = "input_missing"
	// TransportFailure: network unreachable or a non-2xx response.
	TransportFailure Kind = "transport_failure"
	// PermissionDenied: the user refused a permission the component needs.
	PermissionDenied Kind = "permission_denied"
	// OutOfScope: a shared-state consumer was built outside its provider.
	OutOfScope Kind = "out_of_scope"
	// Busy: an operation of the same instance is already running.
	Busy     Kind = "busy"
	Internal Kind = "internal"
)

// Error tags an underlying error with a Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap tags err with kind. A nil err stays nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the outermost Kind in err's chain, Internal for untagged errors
// and "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
