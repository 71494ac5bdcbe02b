// Package apperror defines the typed failures returned by services.
// Handlers translate them to HTTP responses by Kind.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error independently of the transport.
type Kind string

const (
	KindCustomerRequired      Kind = "CustomerRequired"
	KindCustomerNotFound      Kind = "CustomerNotFound"
	KindCustomerAlreadyExists Kind = "CustomerAlreadyExists"
	KindProductNotFound       Kind = "ProductNotFound"
	KindProductAlreadyExists  Kind = "ProductAlreadyExists"
	KindProductInUse          Kind = "ProductInUse"
	KindOrderNotFound         Kind = "OrderNotFound"
	KindInsufficientStock     Kind = "InsufficientStock"
	KindInvalidStatus         Kind = "InvalidStatus"
	KindValidation            Kind = "ValidationError"
	KindUnexpected            Kind = "UnexpectedError"
)

// Error is the single error type produced by the service layer.
type Error struct {
	Kind    Kind
	Message string
	// Details carries extra context such as ids or quantities.
	Details map[string]any
	// Err is the underlying cause and is never shown to API callers.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so sentinel-style checks such
// as errors.Is(err, apperror.New(apperror.KindInsufficientStock, "")) work.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// WithDetail adds a key-value pair to the error details.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Unexpected wraps an infrastructure failure.
func Unexpected(err error, message string) *Error {
	return Wrap(KindUnexpected, err, message)
}

// Validation creates a ValidationError.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// As extracts an *Error from the chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindUnexpected
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsExpected reports whether err is a domain failure rather than an
// infrastructure one.
func IsExpected(err error) bool {
	k := KindOf(err)
	return k != KindUnexpected
}
