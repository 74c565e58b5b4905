package handler

import (
	"errors"
	"fmt"
)

// Kind classifies a dispatch failure. The values are stable strings so that
// outer surfaces (HTTP controllers, message consumers) can map them to their
// own status codes.
type Kind string

const (
	KindInvalidRequest Kind = "InvalidRequestError"
	KindUnknownType    Kind = "UnknownTypeError"
	KindDuplicateType  Kind = "DuplicateTypeError"
	KindConstruction   Kind = "ConstructionError"
	KindHandler        Kind = "HandlerError"
	KindTimeout        Kind = "TimeoutError"
)

// Error is the typed failure reported by the registry and the dispatcher.
// The original cause is preserved and reachable through errors.Is/As.
type Error struct {
	Kind    Kind
	Channel string
	Cause   error
}

// NewError builds a typed error for the given channel.
func NewError(kind Kind, channel string, cause error) *Error {
	return &Error{Kind: kind, Channel: channel, Cause: cause}
}

func (e *Error) Error() string {
	if e.Channel == "" {
		if e.Cause == nil {
			return string(e.Kind)
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: channel %q", e.Kind, e.Channel)
	}
	return fmt.Sprintf("%s: channel %q: %v", e.Kind, e.Channel, e.Cause)
}

// Unwrap exposes the cause for errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// KindOf returns the Kind carried by err, or the empty string when err is not
// a typed dispatch error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
