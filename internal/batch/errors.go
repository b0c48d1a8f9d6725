package batch

import (
	"errors"
	"fmt"
)

// ErrorKind classifies batch and item failures. Validation is the only kind
// that aborts a whole batch; everything else is captured per item.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindPathCollision     ErrorKind = "path_collision"
	KindTimeout           ErrorKind = "timeout"
	KindNetwork           ErrorKind = "network"
	KindNotAvailable      ErrorKind = "not_available"
	KindRestricted        ErrorKind = "restricted"
	KindUnsupportedFormat ErrorKind = "unsupported_format"
	KindCodec             ErrorKind = "codec"
	KindIO                ErrorKind = "io"
	KindInternal          ErrorKind = "internal"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
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

func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from an error chain. Unclassified errors report
// KindInternal so the pool boundary never loses a failure.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// AsError coerces any error into a classified *Error, wrapping unclassified
// ones as KindInternal.
func AsError(err error) *Error {
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	return &Error{Kind: KindInternal, Message: err.Error(), Err: err}
}
