package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind represents a category of failure surfaced to the admin front-end.
type Kind string

const (
	// KindInvalidCredentials indicates login or registration was rejected.
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	// KindEmailDuplicate indicates registration with an email that already exists.
	KindEmailDuplicate Kind = "EMAIL_DUPLICATE_ERROR"
	// KindNotFoundUser indicates an invalid user id or a missing user.
	KindNotFoundUser Kind = "NOT_FOUND_USER"
	// KindNotFoundCv indicates an invalid CV id or a missing CV.
	KindNotFoundCv Kind = "NOT_FOUND_CV"
	// KindBadInputData indicates the backend rejected the submitted data.
	KindBadInputData Kind = "BAD_INPUT_DATA"
	// KindNoNetworkConnection indicates the backend could not be reached.
	KindNoNetworkConnection Kind = "NO_NETWORK_CONNECTION"
	// KindUnauthorized is the Unauthorized Signal: the backend rejected our credentials.
	KindUnauthorized Kind = "UNAUTHORIZED_ERROR"
	// KindLangEnLoad indicates the English resources could not be loaded.
	KindLangEnLoad Kind = "LANG_EN_LOADING_ERROR"
	// KindLangDeLoad indicates the German resources could not be loaded.
	KindLangDeLoad Kind = "LANG_DE_LOADING_ERROR"
	// KindLangRuLoad indicates the Russian resources could not be loaded.
	KindLangRuLoad Kind = "LANG_RU_LOADING_ERROR"
	// KindUnexpected is the fallback for anything unclassified.
	KindUnexpected Kind = "UNEXPECTED_ERROR"
)

// Kinds lists every kind; used to validate message catalogs.
var Kinds = []Kind{
	KindInvalidCredentials,
	KindEmailDuplicate,
	KindNotFoundUser,
	KindNotFoundCv,
	KindBadInputData,
	KindNoNetworkConnection,
	KindUnauthorized,
	KindLangEnLoad,
	KindLangDeLoad,
	KindLangRuLoad,
	KindUnexpected,
}

// MessageKey is the catalog key of the localized message for the kind.
func (k Kind) MessageKey() string { return "errors." + string(k) }

// HTTPStatus maps the kind to the status the BFF answers with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidCredentials, KindBadInputData:
		return http.StatusBadRequest
	case KindEmailDuplicate:
		return http.StatusConflict
	case KindNotFoundUser, KindNotFoundCv:
		return http.StatusNotFound
	case KindNoNetworkConnection:
		return http.StatusBadGateway
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindLangEnLoad, KindLangDeLoad, KindLangRuLoad:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. The Kind survives any amount of %w wrapping.
type Error struct {
	// Kind categorizes the failure
	Kind Kind
	// Message is the raw message that was classified (optional)
	Message string
	// Cause is the underlying error (optional)
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	default:
		return string(e.Kind)
	}
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind, so sentinels like ErrUnauthorized work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.Kind == e.Kind
}

// New creates a classified error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err under kind, preserving it as the cause.
func Wrap(err error, kind Kind) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Cause: err}
}

// ErrUnauthorized is the bare Unauthorized Signal.
var ErrUnauthorized = &Error{Kind: KindUnauthorized}

// KindOf returns the kind of a classified error, or KindUnexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// IsUnauthorized reports whether err carries the Unauthorized Signal.
func IsUnauthorized(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindUnauthorized
}

// IsNotFound checks for either not-found kind.
func IsNotFound(err error) bool {
	k := KindOf(err)
	return err != nil && (k == KindNotFoundUser || k == KindNotFoundCv)
}

// IsNoNetwork checks for a transport failure.
func IsNoNetwork(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNoNetworkConnection
}
