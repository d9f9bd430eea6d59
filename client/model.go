package client

import (
	"errors"
	"fmt"
	"net/http"
)

// NoStatus is the Code of a Response when no HTTP exchange completed.
const NoStatus = -1

// maxErrBodySize caps the amount of a non-2xx response body kept in
// Response.ErrorBody.
const maxErrBodySize = 4 << 10 // 4KB

var (
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [StatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")

	ErrEncode         = errors.New("encoding request body")
	ErrDecode         = errors.New("decoding response body")
	ErrSchemaMismatch = errors.New("response does not match schema")
	ErrInvalidOption  = errors.New("invalid option")
	ErrPanic          = errors.New("panic during call")
)

// Response is the envelope returned by every call. Exactly one of these
// holds: Err is set and Code is NoStatus, or Code carries the status the
// server sent.
type Response[T any] struct {
	Data    T
	HasData bool

	Code    int
	Err     error
	Message string
	Header  http.Header

	// ID correlates the call with its diagnostics lines.
	ID uint64

	// ErrorBody holds the start of the payload of a non-2xx response.
	ErrorBody string

	noPayload bool
}

// IsOK reports whether the server answered 200 and the payload decoded.
// Calls made with [NoPayload] only need the 200.
func (r Response[T]) IsOK() bool {
	if r.noPayload {
		return r.Code == http.StatusOK
	}

	return r.Code == http.StatusOK && r.HasData
}

// Error converts the envelope into ordinary Go error flow. It returns nil
// for any 2xx status.
func (r Response[T]) Error() error {
	switch {
	case r.Err != nil:
		return r.Err
	case r.Code >= 200 && r.Code < 300:
		return nil
	}

	sentinel := ErrUnexpectedStatusCode
	if r.Code == http.StatusUnauthorized || r.Code == http.StatusForbidden {
		sentinel = errors.Join(ErrUnexpectedStatusCode, ErrAuthFailure)
	}

	return &StatusError{
		StatusCode: r.Code,
		Body:       r.ErrorBody,
		Err:        sentinel,
	}
}

// StatusError is returned by [Response.Error] when the server answered
// with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Unit is the data type of calls that never carry a payload.
type Unit struct{}

// fault builds the envelope for a call that produced no usable exchange.
func fault[T any](id uint64, err error) Response[T] {
	return Response[T]{
		Code:    NoStatus,
		Err:     err,
		Message: err.Error(),
		ID:      id,
	}
}
