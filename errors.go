package vsadjust

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	// ErrCodeInvalidInput marks rejected parameters: negative margins, adjustments outside
	// (-100, 100), malformed shapes.
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	// ErrCodeUnknownVariant marks a correction kind that has no mapping.
	ErrCodeUnknownVariant Code = "UNKNOWN_VARIANT"
	// ErrCodePluginUnavailable marks a known kind whose operation is missing from the registry.
	ErrCodePluginUnavailable Code = "PLUGIN_UNAVAILABLE"
	// ErrCodeUnsupported marks a conversion the configured resampler cannot perform.
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code
	Message string
	Kind    string // requested correction kind, if any
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Kind != "" {
		msg += " (kind " + e.Kind + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error by code, so sentinel-style checks work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code && t.Message == ""
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrValidation        = &Error{Code: ErrCodeInvalidInput}
	ErrUnknownVariant    = &Error{Code: ErrCodeUnknownVariant}
	ErrPluginUnavailable = &Error{Code: ErrCodePluginUnavailable}
	ErrUnsupported       = &Error{Code: ErrCodeUnsupported}
)

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code Code, cause error, format string, args ...any) *Error {
	var e *Error
	if errors.As(cause, &e) && e.Code == code {
		return &Error{Code: code, Message: fmt.Sprintf(format, args...) + ": " + e.Message, Kind: e.Kind, Cause: e.Cause}
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// DeprecationNotice is emitted when a deprecated correction kind resolves to its replacement.
type DeprecationNotice struct {
	Kind        CorrectionKind
	Replacement CorrectionKind
}

func (n DeprecationNotice) String() string {
	return fmt.Sprintf("correction kind %s is deprecated, using %s", n.Kind, n.Replacement)
}
