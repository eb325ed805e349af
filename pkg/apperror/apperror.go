package apperror

import (
	"errors"
	"fmt"
)

// Kind phân loại lỗi theo cách caller cần xử lý.
type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindConflict        Kind = "CONFLICT"
	KindExternalGateway Kind = "EXTERNAL_GATEWAY"
	KindState           Kind = "STATE"
	KindNotFound        Kind = "NOT_FOUND"
	KindInternal        Kind = "INTERNAL"
)

// Error is the typed error returned by every service in the core.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so sentinel errors keep working after WithDetails/Wrap.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy carrying details (offending items, limits...).
func (e *Error) WithDetails(details interface{}) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Wrap returns a copy carrying the underlying cause.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// WithMessage returns a copy with a different user-facing message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

func ExternalGateway(code, message string) *Error {
	return New(KindExternalGateway, code, message)
}

func State(code, message string) *Error {
	return New(KindState, code, message)
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func Internal(code, message string) *Error {
	return New(KindInternal, code, message)
}

// KindOf returns the kind of the first *Error in the chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// As is a shorthand for errors.As on *Error.
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}
