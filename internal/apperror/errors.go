// Package apperror is the error taxonomy shared by the ledger, the summary engine and the catalog gateway.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation          Kind = "ValidationError"
	KindNotFound            Kind = "NotFoundError"
	KindInsufficientStock   Kind = "InsufficientStockError"
	KindUpstreamUnavailable Kind = "UpstreamUnavailableError"
	KindInternal            Kind = "InternalError"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Sentinels for errors.Is; any *Error of the same Kind matches.
var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrInsufficientStock   = &Error{Kind: KindInsufficientStock}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InsufficientStock(format string, args ...any) error {
	return &Error{Kind: KindInsufficientStock, Message: fmt.Sprintf(format, args...)}
}

func Upstream(err error, format string, args ...any) error {
	return &Error{Kind: KindUpstreamUnavailable, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf reports the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the human-readable part of the first *Error in the chain.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
