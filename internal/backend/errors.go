package backend

import (
	"errors"
	"fmt"
)

// ErrorKind classifies backend call failures so callers can branch
// exhaustively instead of string-matching.
type ErrorKind int

const (
	// KindCredential means the backend rejected the caller's credentials or
	// token. The Message field carries the server-supplied explanation.
	KindCredential ErrorKind = iota
	// KindTransport means the request was sent but no response arrived.
	KindTransport
	// KindMalformed means a response arrived but could not be decoded.
	KindMalformed
	// KindServer means the backend answered with a non-credential error
	// status.
	KindServer
)

// String names the kind for logs.
func (k ErrorKind) String() string {
	switch k {
	case KindCredential:
		return "credential"
	case KindTransport:
		return "transport"
	case KindMalformed:
		return "malformed"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is the classified failure of a backend call.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("backend: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("backend: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a backend Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var be *Error
	if !errors.As(err, &be) {
		return false
	}
	return be.Kind == kind
}
