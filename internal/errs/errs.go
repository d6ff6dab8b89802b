// Package errs defines the error taxonomy shared by the catalog engine and its
// HTTP transport. Every error that crosses a package boundary carries a Kind so
// callers can branch on it without parsing messages.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind uint8

const (
	KindInternal Kind = iota
	KindConfig
	KindNotFound
	KindInvalidRequest
	KindProvider
	KindProviderUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindNotFound:
		return "not_found"
	case KindInvalidRequest:
		return "invalid_request"
	case KindProvider:
		return "provider"
	case KindProviderUnavailable:
		return "provider_unavailable"
	default:
		return "internal"
	}
}

// Error codes exposed to clients.
const (
	CodeConfig              = "CONFIG_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidFacet        = "INVALID_FACET"
	CodeProvider            = "PROVIDER_ERROR"
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	CodeInternal            = "INTERNAL_ERROR"
)

// Error is a classified error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the package sentinels by kind, so errors.Is(err, ErrNotFound)
// holds for every not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" || t.Err != nil {
		return false
	}
	if t.Code != "" && t.Code != e.Code {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrConfig              = &Error{Kind: KindConfig}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrInvalidRequest      = &Error{Kind: KindInvalidRequest}
	ErrInvalidFacet        = &Error{Kind: KindInvalidRequest, Code: CodeInvalidFacet}
	ErrProvider            = &Error{Kind: KindProvider}
	ErrProviderUnavailable = &Error{Kind: KindProviderUnavailable}
)

// Config wraps the problems found while loading a catalog document.
func Config(err error) error {
	return &Error{Kind: KindConfig, Code: CodeConfig, Message: "invalid catalog configuration", Err: err}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidRequest(format string, args ...any) error {
	return &Error{Kind: KindInvalidRequest, Code: CodeInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// InvalidFacet reports a facet selection the target section cannot accept.
func InvalidFacet(section, item, reason string) error {
	return &Error{
		Kind:    KindInvalidRequest,
		Code:    CodeInvalidFacet,
		Message: fmt.Sprintf("facet %s=%s: %s", section, item, reason),
	}
}

func Provider(err error, format string, args ...any) error {
	return &Error{Kind: KindProvider, Code: CodeProvider, Message: fmt.Sprintf(format, args...), Err: err}
}

func ProviderUnavailable(err error, format string, args ...any) error {
	return &Error{Kind: KindProviderUnavailable, Code: CodeProviderUnavailable, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first classified error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the client-facing code for err.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return CodeInternal
}
