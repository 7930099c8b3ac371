package chatclient

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed send into the widget's error taxonomy
type ErrorKind string

const (
	// KindRateLimit is an HTTP 429; never retried
	KindRateLimit ErrorKind = "rate_limit"
	// KindTimeout is a request that hit the 30s deadline; never retried
	KindTimeout ErrorKind = "timeout"
	// KindServerError is an HTTP 5xx; retried
	KindServerError ErrorKind = "server_error"
	// KindNetwork is a transport-level failure; retried
	KindNetwork ErrorKind = "network"
	// KindValidation is an HTTP 400 or an error field in a 2xx body;
	// never retried, the server message is surfaced verbatim
	KindValidation ErrorKind = "validation"
)

// Retryable reports whether sends failing with this kind may be retried
func (k ErrorKind) Retryable() bool {
	return k == KindServerError || k == KindNetwork
}

// ClientError is a classified send failure
type ClientError struct {
	Kind ErrorKind
	// Message holds server-provided text for validation errors
	Message string
	// Attempts is the total number of send attempts made
	Attempts int
	Err      error
}

func (e *ClientError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("chat send failed (%s): %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("chat send failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("chat send failed (%s)", e.Kind)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// KindOf extracts the error kind from any error in the chain, or ""
// when the error is not a classified send failure
func KindOf(err error) ErrorKind {
	var cerr *ClientError
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return ""
}
