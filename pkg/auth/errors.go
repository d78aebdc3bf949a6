package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/meridianhq/gatehouse/pkg/httputil"
)

// Kind classifies an authentication or authorization failure.
type Kind int

const (
	// KindMissingCredential means the Authorization header was absent or
	// not a well-formed bearer credential.
	KindMissingCredential Kind = iota
	// KindInvalidToken means the credential failed signature or claim
	// validation.
	KindInvalidToken
	// KindExpiredToken means the credential was valid but past its expiry.
	KindExpiredToken
	// KindMalformedToken means the credential was not parseable at all.
	KindMalformedToken
	// KindSessionExpired means the credential decoded but no live session
	// exists for the principal.
	KindSessionExpired
	// KindForbidden means the principal is authenticated but not permitted.
	KindForbidden
	// KindAdapterUnavailable means a backing store (session registry,
	// principal store) could not be reached.
	KindAdapterUnavailable
	// KindUnrecoverableFault means the handler chain crashed and was
	// converted to a response by the fault boundary.
	KindUnrecoverableFault
)

// String returns the kind's stable identifier.
func (k Kind) String() string {
	switch k {
	case KindMissingCredential:
		return "missing_credential"
	case KindInvalidToken:
		return "invalid_token"
	case KindExpiredToken:
		return "expired_token"
	case KindMalformedToken:
		return "malformed_token"
	case KindSessionExpired:
		return "session_expired"
	case KindForbidden:
		return "forbidden"
	case KindAdapterUnavailable:
		return "adapter_unavailable"
	case KindUnrecoverableFault:
		return "unrecoverable_fault"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindMissingCredential, KindInvalidToken, KindExpiredToken,
		KindMalformedToken, KindSessionExpired:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindAdapterUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing message for the kind. Internal error
// detail is logged server-side, never returned to the client.
func (k Kind) Message() string {
	switch k {
	case KindMissingCredential:
		return "missing or malformed credential"
	case KindInvalidToken, KindMalformedToken:
		return "invalid token"
	case KindExpiredToken:
		return "token has expired"
	case KindSessionExpired:
		return "session expired, please log in again"
	case KindForbidden:
		return "insufficient permissions"
	case KindAdapterUnavailable:
		return "service temporarily unavailable"
	default:
		return "internal server error"
	}
}

// Error is an authentication/authorization failure carrying a Kind and an
// optional wrapped cause. The cause is for server-side logs only.
type Error struct {
	Kind Kind
	Err  error
}

// E builds an Error of the given kind.
func E(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Wrap builds an Error of the given kind around a cause.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// Envelope converts the error into the user-facing response envelope.
// Only the kind's generic message is exposed.
func (e *Error) Envelope() httputil.Envelope {
	return httputil.FailCode(uint(e.Kind.HTTPStatus()), e.Kind.Message())
}

// KindOf extracts the Kind from an error chain, defaulting to
// KindInvalidToken for unclassified failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInvalidToken
}
