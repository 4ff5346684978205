package vm

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// ErrNoAPIKey is returned when a client is built without credentials.
var ErrNoAPIKey = errors.New("orgo API key not configured")

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("orgo api %s: HTTP %d: %s", e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("orgo api %s: HTTP %d: %s", e.Path, e.StatusCode, e.Message)
}

// Failure is the closed set of outcomes the reconnect policy branches on.
type Failure int

const (
	FailureNone Failure = iota
	FailureNotFound
	FailureAuth
	FailureNetwork
	FailureOther
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureNotFound:
		return "not_found"
	case FailureAuth:
		return "auth"
	case FailureNetwork:
		return "network"
	default:
		return "other"
	}
}

// Classify maps an error returned by a Provider or Computer onto a Failure.
// Structured status codes are checked first; the message match in
// legacyNotFound only runs for errors that carry no code at all.
func Classify(err error) Failure {
	if err == nil {
		return FailureNone
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusNotFound:
			return FailureNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return FailureAuth
		default:
			return FailureOther
		}
	}

	if errors.Is(err, ErrNoAPIKey) {
		return FailureAuth
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return FailureNetwork
	}

	if legacyNotFound(err) {
		return FailureNotFound
	}

	return FailureOther
}

// legacyNotFound is a compatibility shim for providers that report a missing
// project only through the error text.
func legacyNotFound(err error) bool {
	return strings.Contains(err.Error(), "404")
}
