package repository

import (
	"errors"
	"fmt"
)

// ErrAPIKeyMissing is returned before any request when no service key is configured.
var ErrAPIKeyMissing = errors.New("API key missing")

// TransportError wraps a network level failure (DNS, refused, reset, body read).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIResultError is a well-formed envelope whose resultCode is not "00".
type APIResultError struct {
	Code    string
	Message string
}

func (e *APIResultError) Error() string {
	return fmt.Sprintf("api result %s: %s", e.Code, e.Message)
}

// MalformedResponseError means the body could not be read as the expected envelope.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
