package weather

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failures a lookup can end in.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindCityNotFound
	KindNetwork
	KindInvalidCredentials
	KindTimeout
	KindServerError
)

func (k ErrorKind) String() string {
	switch k {
	case KindCityNotFound:
		return "city_not_found"
	case KindNetwork:
		return "network"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindTimeout:
		return "timeout"
	case KindServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// Error is a classified lookup failure. Code holds the upstream HTTP status
// for KindServerError and is zero otherwise.
type Error struct {
	Kind    ErrorKind
	Code    int
	Message string
	Err     error
}

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// ServerError builds a KindServerError carrying the upstream status code.
func ServerError(code int, cause error) *Error {
	return &Error{
		Kind:    KindServerError,
		Code:    code,
		Message: fmt.Sprintf("upstream returned status %d", code),
		Err:     cause,
	}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return KindUnknown
}
