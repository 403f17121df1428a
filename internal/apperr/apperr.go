// Package apperr defines the error taxonomy shared by every client call:
// client-detected validation failures, authentication failures, business
// rule conflicts reported by a backend, and transient failures.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindTransient  Kind = "transient"
)

// Error carries a kind plus the message that is shown to the user as is.
type Error struct {
	Kind    Kind
	Message string
	Status  int   // HTTP status when the error came from a response, 0 otherwise
	Cause   error // Wrapped underlying error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrTransient  = &Error{Kind: KindTransient}
)

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Auth(message string, cause error) *Error {
	return &Error{Kind: KindAuth, Message: message, Status: http.StatusUnauthorized, Cause: cause}
}

func Conflict(status int, message string) *Error {
	return &Error{Kind: KindConflict, Message: message, Status: status}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...), Status: http.StatusNotFound}
}

func Transient(message string, cause error) *Error {
	return &Error{Kind: KindTransient, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain. Errors outside
// the taxonomy are reported as transient.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsAuth(err error) bool       { return errors.Is(err, ErrAuth) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsTransient(err error) bool  { return errors.Is(err, ErrTransient) }

// FromResponse maps a non-2xx response to an error. The server message is
// kept verbatim.
func FromResponse(status int, body []byte) *Error {
	msg := serverMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch {
	case status == http.StatusUnauthorized:
		return Auth(msg, nil)
	case status == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Message: msg, Status: status}
	case status >= 400 && status < 500:
		return Conflict(status, msg)
	default:
		return &Error{Kind: KindTransient, Message: msg, Status: status}
	}
}

func serverMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		if len(trimmed) > 512 {
			trimmed = trimmed[:512]
		}
		return trimmed
	}
	for _, m := range []string{payload.Message, payload.Detail, payload.Error} {
		if m != "" {
			return m
		}
	}
	return ""
}
