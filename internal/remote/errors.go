package remote

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
)

// Error is a non-2xx response from the algorithms API.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error is a 404.
func IsNotFound(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode == 404
	}
	return false
}

// Kind classifies a transport failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindIO
	KindHTTP
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IOException"
	case KindHTTP:
		return "HttpException"
	}
	return "Undefined Exception"
}

// Classify sorts err into an I/O failure, an HTTP status failure or neither.
// Decoding failures and anything not coming from the connection are
// unclassified.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return KindHTTP
	}
	var urlErr *url.Error
	var netErr net.Error
	var opErr *net.OpError
	var errno syscall.Errno
	switch {
	case errors.As(err, &urlErr), errors.As(err, &netErr), errors.As(err, &opErr), errors.As(err, &errno):
		return KindIO
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return KindIO
	}
	return KindUnknown
}

// Describe renders the user-facing message for a failed operation, e.g.
// "IOException: loading algorithms".
func Describe(err error, op string) string {
	return Classify(err).String() + ": " + op
}
