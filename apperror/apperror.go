package apperror

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is returned when a login username does not map to a customer.
// It deliberately carries no detail about which usernames exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrCustomerNotFound is returned when the customer-record service has no such customer.
var ErrCustomerNotFound = errors.New("customer not found")

// UpstreamError wraps any failure of an external service call: transport errors,
// timeouts and non-success statuses.
type UpstreamError struct {
	Service string
	Status  int
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Service, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Upstream builds an UpstreamError for a transport level failure.
func Upstream(service string, err error) error {
	return &UpstreamError{Service: service, Err: err}
}

// UpstreamStatus builds an UpstreamError for a non-success response.
func UpstreamStatus(service string, status int, body string) error {
	return &UpstreamError{Service: service, Status: status, Err: errors.New(body)}
}

// ValidationError is malformed structured input; Message names the expected format.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var upstreamErr *UpstreamError
	return errors.As(err, &upstreamErr)
}
