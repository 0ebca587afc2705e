package nomad

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed exchange.
type ErrorKind int

const (
	// KindServerError is any 5xx response.
	KindServerError ErrorKind = iota + 1
	// KindBadRequest is a 400 response.
	KindBadRequest
	// KindAuthenticationDisabled is a 401 response (ACLs are disabled on the cluster).
	KindAuthenticationDisabled
	// KindPermissionDenied is a 403 response.
	KindPermissionDenied
	// KindNotFound is a 404 response that the interpreter was not told to accept.
	KindNotFound
	// KindTimeout is a connection-level failure reported by the transport.
	KindTimeout
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindServerError:
		return "ServerError"
	case KindBadRequest:
		return "BadRequest"
	case KindAuthenticationDisabled:
		return "AuthenticationDisabled"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindNotFound:
		return "NotFound"
	case KindTimeout:
		return "Timeout"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Sentinel errors for classification via errors.Is().
var (
	ErrServerError            = errors.New("nomad server error")
	ErrBadRequest             = errors.New("bad request")
	ErrAuthenticationDisabled = errors.New("ACL support disabled")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrNotFound               = errors.New("not found")
	ErrTimeout                = errors.New("timeout")
)

// Static errors for err113 compliance.
var (
	ErrMissingIndex      = errors.New("response has no X-Nomad-Index header")
	ErrInvalidIndex      = errors.New("invalid X-Nomad-Index header")
	ErrUnknownOption     = errors.New("unknown option")
	ErrInvalidOption     = errors.New("invalid option")
	ErrIDRequired        = errors.New("identifier is required")
	ErrUnexpectedPayload = errors.New("unexpected payload shape")
	ErrTransportClosed   = errors.New("transport closed")
)

// Error is a classified failure. StatusCode is zero for transport-level failures.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind == KindTimeout {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
		}

		return e.Kind.String()
	}

	if e.Body == "" {
		return fmt.Sprintf("%s (%d)", e.Kind, e.StatusCode)
	}

	return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Body)
}

// Is reports whether target is the sentinel matching the error kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Unwrap exposes the underlying transport cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindServerError:
		return ErrServerError
	case KindBadRequest:
		return ErrBadRequest
	case KindAuthenticationDisabled:
		return ErrAuthenticationDisabled
	case KindPermissionDenied:
		return ErrPermissionDenied
	case KindNotFound:
		return ErrNotFound
	case KindTimeout:
		return ErrTimeout
	default:
		return nil
	}
}

// NewTimeoutError wraps a transport failure as KindTimeout.
func NewTimeoutError(cause error) *Error {
	return &Error{Kind: KindTimeout, Cause: cause}
}

// Classify applies the status precedence shared by every interpreter:
// 5xx, 400, 401, 403, then 404 unless allowNotFound is set.
// Any other status yields nil.
func Classify(resp *Response, allowNotFound bool) error {
	code := resp.StatusCode

	var kind ErrorKind

	switch {
	case code >= http.StatusInternalServerError && code < 600:
		kind = KindServerError
	case code == http.StatusBadRequest:
		kind = KindBadRequest
	case code == http.StatusUnauthorized:
		kind = KindAuthenticationDisabled
	case code == http.StatusForbidden:
		kind = KindPermissionDenied
	case code == http.StatusNotFound && !allowNotFound:
		kind = KindNotFound
	default:
		return nil
	}

	return &Error{Kind: kind, StatusCode: code, Body: string(resp.Body)}
}

// KindOf returns the kind of a classified error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	nomadErr := &Error{}
	if errors.As(err, &nomadErr) {
		return nomadErr.Kind, true
	}

	return 0, false
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTimeout checks if the error is a transport timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsPermissionDenied checks if the error is a 403.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsServerError checks if the error is a 5xx.
func IsServerError(err error) bool {
	return errors.Is(err, ErrServerError)
}
