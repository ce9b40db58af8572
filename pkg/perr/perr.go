// Package perr implements the property engine's error taxonomy: a tagged
// union of the seven kinds the daemon ever returns to a client, in place
// of a type hierarchy.
package perr

import "fmt"

// Kind identifies one of the seven error categories a property operation
// can fail with.
type Kind string

const (
	InvalidValue          Kind = "InvalidValue"
	InvalidState          Kind = "InvalidState"
	InvalidProperty       Kind = "InvalidProperty"
	NotSupported          Kind = "NotSupported"
	Permission            Kind = "Permission"
	ResourceNotAvailable  Kind = "ResourceNotAvailable"
	Unknown               Kind = "Unknown"
)

// Error is the concrete type every property operation returns on failure.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// New builds an error of kind with a pre-formatted message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an error of kind carrying cause as the underlying reason.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func InvalidValuef(format string, args ...any) *Error { return newf(InvalidValue, format, args...) }
func InvalidStatef(format string, args ...any) *Error { return newf(InvalidState, format, args...) }
func InvalidPropertyf(format string, args ...any) *Error {
	return newf(InvalidProperty, format, args...)
}
func NotSupportedf(format string, args ...any) *Error { return newf(NotSupported, format, args...) }
func Permissionf(format string, args ...any) *Error   { return newf(Permission, format, args...) }
func ResourceNotAvailablef(format string, args ...any) *Error {
	return newf(ResourceNotAvailable, format, args...)
}
func Unknownf(format string, args ...any) *Error { return newf(Unknown, format, args...) }

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	pe, ok := err.(*Error)
	if !ok {
		return false
	}
	return pe.Kind == kind
}

// As extracts the *Error from err, if err is one.
func As(err error) (*Error, bool) {
	pe, ok := err.(*Error)
	return pe, ok
}
