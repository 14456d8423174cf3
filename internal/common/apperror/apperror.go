// Package apperror defines the error taxonomy shared by the approval engine.
//
// Every engine error carries a Kind so callers (HTTP layer, batch runners) can
// react without string matching, plus the resource and natural key involved so
// the human-readable summary says which row collided or was missing.
package apperror

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindDuplicate         Kind = "duplicate"
	KindInvalidTransition Kind = "invalid_transition"
	KindIneligible        Kind = "ineligible"
	KindConflict          Kind = "conflict"
	KindInvalid           Kind = "invalid"
)

type Error struct {
	Kind     Kind
	Resource string
	Key      string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Resource != "" && e.Key != "" {
		msg = fmt.Sprintf("%s: %s (%s)", e.Resource, msg, e.Key)
	} else if e.Resource != "" {
		msg = fmt.Sprintf("%s: %s", e.Resource, msg)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err (or anything it wraps) is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or "" for untyped errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func NotFound(resource, key string) error {
	return &Error{Kind: KindNotFound, Resource: resource, Key: key, Message: "not found"}
}

func Duplicate(resource, key string) error {
	return &Error{Kind: KindDuplicate, Resource: resource, Key: key, Message: "already exists"}
}

func InvalidTransition(resource, key, format string, args ...any) error {
	return &Error{Kind: KindInvalidTransition, Resource: resource, Key: key, Message: fmt.Sprintf(format, args...)}
}

func Ineligible(resource, key, format string, args ...any) error {
	return &Error{Kind: KindIneligible, Resource: resource, Key: key, Message: fmt.Sprintf(format, args...)}
}

func Conflict(resource, key, format string, args ...any) error {
	return &Error{Kind: KindConflict, Resource: resource, Key: key, Message: fmt.Sprintf(format, args...)}
}

func Invalid(field, format string, args ...any) error {
	return &Error{Kind: KindInvalid, Resource: field, Message: fmt.Sprintf(format, args...)}
}

// FromMongo translates driver errors into the taxonomy. Unknown errors pass through.
func FromMongo(err error, resource, key string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return NotFound(resource, key)
	case mongo.IsDuplicateKeyError(err):
		return &Error{Kind: KindDuplicate, Resource: resource, Key: key, Message: "already exists", Err: err}
	}
	return err
}
