package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrAuthenticationMissing is returned before any network call when an
	// authenticated operation is invoked without a token.
	ErrAuthenticationMissing = errors.New("authentication token not found")
	// ErrAuthenticationRejected is returned when the server refuses the token.
	ErrAuthenticationRejected = errors.New("authentication rejected")
	// ErrInvalidCredentials is returned by Login for unknown email/password pairs.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNetwork matches every NetworkError.
	ErrNetwork = errors.New("network failure")
)

// NetworkError is a transport level failure: timeout, DNS, connection
// refused or an unreadable response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("error %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// StatusError is a non-OK response the client has no specific meaning for.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Message)
}

// ValidationError lists the request fields that failed client-side
// validation, keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
