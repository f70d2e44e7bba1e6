package cqlerr

import (
	"context"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
)

var driverErrors = map[error]Code{
	gocql.ErrNoConnections:        LibNoHostsAvailable,
	gocql.ErrNoHosts:              LibNoHostsAvailable,
	gocql.ErrTimeoutNoResponse:    LibRequestTimedOut,
	gocql.ErrConnectionClosed:     LibUnableToConnect,
	gocql.ErrSessionClosed:        LibUnableToClose,
	gocql.ErrTooManyStmts:         LibInvalidItemCount,
	gocql.ErrKeyspaceDoesNotExist: LibUnableToSetKeyspace,
	gocql.ErrUnavailable:          ServerUnavailable,
	gocql.ErrQueryArgLength:       LibInvalidParameterCount,
}

// FromGocql translates an error returned by the driver. Server side request
// errors keep their protocol code and message; everything else is mapped to
// the closest library code with the original error as cause.
func FromGocql(err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	var reqErr gocql.RequestError
	if errors.As(err, &reqErr) {
		return &Error{
			Code:    serverBase + Code(uint32(reqErr.Code())&0xFFFFFF),
			Message: reqErr.Message(),
			cause:   err,
		}
	}

	for sentinel, code := range driverErrors {
		if errors.Is(err, sentinel) {
			return WithCause(code, err, "%s", code.Description())
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return WithCause(LibRequestTimedOut, err, "%s", LibRequestTimedOut.Description())
	case errors.Is(err, context.Canceled):
		return WithCause(LibRequestTimedOut, err, "request canceled")
	}

	var unmarshalErr gocql.UnmarshalError
	if errors.As(err, &unmarshalErr) {
		return WithCause(LibUnexpectedResponse, err, "unable to decode value")
	}
	var marshalErr gocql.MarshalError
	if errors.As(err, &marshalErr) {
		return WithCause(LibMessageEncode, err, "unable to encode value")
	}

	return WithCause(LibUnexpectedResponse, err, "driver error")
}
