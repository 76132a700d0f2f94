// Package apperr defines the error taxonomy shared across the tool.
// Every failure surfaced to the user carries a Kind so the CLI layer can
// map it to an exit code and message without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation policy.
type Kind string

const (
	// KindConfig covers missing credentials or broken configuration.
	KindConfig Kind = "config"
	// KindUsage covers bad or conflicting CLI arguments.
	KindUsage Kind = "usage"
	// KindCorrupt covers unparseable on-disk state such as the history file.
	KindCorrupt Kind = "corrupt"
	// KindAPI covers provider-reported error payloads.
	KindAPI Kind = "api"
	// KindTransport covers network and HTTP-level failures.
	KindTransport Kind = "transport"
)

// Error is a Kind-tagged error with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New builds a tagged error.
func New(kind Kind, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Newf builds a tagged error without a cause from a format string.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func IsConfig(err error) bool    { return is(err, KindConfig) }
func IsUsage(err error) bool     { return is(err, KindUsage) }
func IsCorrupt(err error) bool   { return is(err, KindCorrupt) }
func IsAPI(err error) bool       { return is(err, KindAPI) }
func IsTransport(err error) bool { return is(err, KindTransport) }
