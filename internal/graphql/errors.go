package graphql

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEndpoint is wrapped by the ConfigurationError returned for an
	// endpoint that is not an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("Invalid endpoint URL")

	// ErrMissingCredential is wrapped by the ConfigurationError returned for
	// an empty or blank token.
	ErrMissingCredential = errors.New("Token is required")
)

// ConfigurationError is returned when a client cannot be constructed.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string { return e.Err.Error() }

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NotFoundError is returned when a lookup by id matches no record. Managers
// return it before issuing any dependent write.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %s not found", e.Kind, e.ID)
}

// ResponseError is what HTTPClient.Execute returns when the server rejected
// the request, either with a non-2xx status or a GraphQL "errors" array.
type ResponseError struct {
	StatusCode int
	Errors     []GraphQLError
}

func (e *ResponseError) Error() string {
	if msg := e.FirstMessage(); msg != "" {
		return fmt.Sprintf("graphql: %s", msg)
	}
	return fmt.Sprintf("graphql: unexpected HTTP status %d", e.StatusCode)
}

// FirstMessage returns the first non-empty server message, or "".
func (e *ResponseError) FirstMessage() string {
	for _, ge := range e.Errors {
		if ge.Message != "" {
			return ge.Message
		}
	}
	return ""
}

// RemoteOperationError is the single error shape every manager method
// returns for a failed round trip. Op is a human readable description such
// as "update device".
type RemoteOperationError struct {
	Op      string
	Message string
	Err     error
}

func (e *RemoteOperationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("Failed to %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("Failed to %s", e.Op)
}

func (e *RemoteOperationError) Unwrap() error { return e.Err }

// Wrap normalizes err into a *RemoteOperationError tagged with op. A nil err
// returns nil. NotFoundError, ConfigurationError and errors that are already
// normalized pass through unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		roe *RemoteOperationError
		nfe *NotFoundError
		cfe *ConfigurationError
	)
	if errors.As(err, &roe) || errors.As(err, &nfe) || errors.As(err, &cfe) {
		return err
	}

	var re *ResponseError
	if errors.As(err, &re) {
		return &RemoteOperationError{Op: op, Message: re.FirstMessage(), Err: err}
	}
	return &RemoteOperationError{Op: op, Err: err}
}

// Failf builds a *RemoteOperationError for failures detected locally while
// processing a response, such as a body that does not match the expected
// shape.
func Failf(op string, format string, args ...any) error {
	return &RemoteOperationError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// Fail is Failf for an existing error: its text becomes the message and it
// stays reachable through errors.Is and errors.As.
func Fail(op string, err error) error {
	return &RemoteOperationError{Op: op, Message: err.Error(), Err: err}
}
