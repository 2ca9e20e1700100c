// Package apperr defines the error taxonomy shared by the session, staging,
// synthesis and HTTP layers. Every error that crosses a package boundary is
// an *Error carrying a stable Kind so the transport can map it to a status
// code without string matching.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a stable error category.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindInvalidPayload  Kind = "invalid_payload"
	KindNotFound        Kind = "not_found"
	KindConfiguration   Kind = "configuration"
	KindModelLoad       Kind = "model_load"
	KindNoAudioProduced Kind = "no_audio_produced"
	KindUnavailable     Kind = "unavailable"
	KindRateLimited     Kind = "rate_limited"
	KindInternal        Kind = "internal"
)

// Error is a categorized error with an optional offending field.
type Error struct {
	Kind  Kind
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Field != "" && msg == "" {
		msg = "invalid " + e.Field
	}
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode maps the kind to an HTTP status code.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation, KindInvalidPayload:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConfiguration, KindUnavailable:
		return http.StatusServiceUnavailable
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Validation reports a bad request shape or value.
func Validation(field, format string, args ...any) error {
	return &Error{Kind: KindValidation, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// InvalidPayload reports a malformed inline binary encoding in field.
func InvalidPayload(field string, err error) error {
	return &Error{Kind: KindInvalidPayload, Field: field, Msg: "invalid base64 payload in " + field, Err: err}
}

// NotFound reports a referenced file or resource that does not exist.
func NotFound(field, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Configuration reports that no model paths could be resolved.
func Configuration(msg string) error {
	return &Error{Kind: KindConfiguration, Msg: msg}
}

// ModelLoad wraps an engine construction failure.
func ModelLoad(err error) error {
	return &Error{Kind: KindModelLoad, Msg: "failed to load models", Err: err}
}

// NoAudioProduced reports an engine run that emitted nothing.
func NoAudioProduced() error {
	return &Error{Kind: KindNoAudioProduced, Msg: "no audio generated"}
}

// Unavailable reports a missing external runtime dependency.
func Unavailable(msg string) error {
	return &Error{Kind: KindUnavailable, Msg: msg}
}

// RateLimited reports admission rejected by a limiter.
func RateLimited(msg string) error {
	return &Error{Kind: KindRateLimited, Msg: msg}
}

// Internal wraps any other failure, including staging I/O.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal for uncategorized errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FieldOf returns the offending field recorded on err, if any.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func IsValidation(err error) bool      { return Is(err, KindValidation) }
func IsInvalidPayload(err error) bool  { return Is(err, KindInvalidPayload) }
func IsConfiguration(err error) bool   { return Is(err, KindConfiguration) }
func IsModelLoad(err error) bool       { return Is(err, KindModelLoad) }
func IsNoAudioProduced(err error) bool { return Is(err, KindNoAudioProduced) }
