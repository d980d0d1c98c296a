// Package apperr defines the error kinds the catalog surfaces to HTTP callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	Unknown Kind = iota
	ValidationFailed
	InvalidIdentifier
	MissingRequiredFile
	UnsupportedMediaType
	PayloadTooLarge
	NotFound
	UploadFailed
	StoreUnavailable
)

var kindNames = map[Kind]string{
	Unknown:              "unknown",
	ValidationFailed:     "validation failed",
	InvalidIdentifier:    "invalid identifier",
	MissingRequiredFile:  "missing required file",
	UnsupportedMediaType: "unsupported media type",
	PayloadTooLarge:      "payload too large",
	NotFound:             "not found",
	UploadFailed:         "upload failed",
	StoreUnavailable:     "store unavailable",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Error is a classified failure. Message is safe to show to callers for 4xx kinds;
// Err carries the underlying cause and is only logged.
type Error struct {
	Kind     Kind
	Message  string
	Messages []string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if len(e.Messages) > 0 {
		msg = strings.Join(e.Messages, "; ")
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Validation returns a ValidationFailed error holding every field message.
func Validation(msgs ...string) *Error {
	return &Error{Kind: ValidationFailed, Message: "validation failed", Messages: msgs}
}

// KindOf reports the kind of err, or Unknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status maps an error to the HTTP status the API answers with.
func Status(err error) int {
	switch KindOf(err) {
	case ValidationFailed, InvalidIdentifier, MissingRequiredFile, UnsupportedMediaType, PayloadTooLarge:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
