// Package cqlerr maps every status produced by the binding, the driver and the
// server onto a single code space.
package cqlerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Source identifies which layer produced a Code.
type Source uint8

const (
	SourceNone Source = iota
	SourceLib
	SourceServer
	SourceSSL
)

func (s Source) String() string {
	switch s {
	case SourceLib:
		return "LIB"
	case SourceServer:
		return "SERVER"
	case SourceSSL:
		return "SSL"
	default:
		return "NONE"
	}
}

// Code is a status code. The top byte is the Source, the low 24 bits are the
// source specific value. Server values are the native protocol error codes.
type Code uint32

const (
	libBase    = Code(SourceLib) << 24
	serverBase = Code(SourceServer) << 24
	sslBase    = Code(SourceSSL) << 24
)

// OK is the success code.
const OK Code = 0

// Library (client side) codes.
const (
	LibBadParams                 = libBase + 1
	LibNoStreams                 = libBase + 2
	LibUnableToInit              = libBase + 3
	LibMessageEncode             = libBase + 4
	LibHostResolution            = libBase + 5
	LibUnexpectedResponse        = libBase + 6
	LibRequestQueueFull          = libBase + 7
	LibNoAvailableIOThread       = libBase + 8
	LibWriteError                = libBase + 9
	LibNoHostsAvailable          = libBase + 10
	LibIndexOutOfBounds          = libBase + 11
	LibInvalidItemCount          = libBase + 12
	LibInvalidValueType          = libBase + 13
	LibRequestTimedOut           = libBase + 14
	LibUnableToSetKeyspace       = libBase + 15
	LibCallbackAlreadySet        = libBase + 16
	LibInvalidStatementType      = libBase + 17
	LibNameDoesNotExist          = libBase + 18
	LibUnableToDetermineProtocol = libBase + 19
	LibNullValue                 = libBase + 20
	LibNotImplemented            = libBase + 21
	LibUnableToConnect           = libBase + 22
	LibUnableToClose             = libBase + 23
	LibParameterUnset            = libBase + 24
	LibInvalidParameterCount     = libBase + 25
)

// Server codes.
const (
	ServerServerError     = serverBase + 0x0000
	ServerProtocolError   = serverBase + 0x000A
	ServerBadCredentials  = serverBase + 0x0100
	ServerUnavailable     = serverBase + 0x1000
	ServerOverloaded      = serverBase + 0x1001
	ServerIsBootstrapping = serverBase + 0x1002
	ServerTruncateError   = serverBase + 0x1003
	ServerWriteTimeout    = serverBase + 0x1100
	ServerReadTimeout     = serverBase + 0x1200
	ServerReadFailure     = serverBase + 0x1300
	ServerFunctionFailure = serverBase + 0x1400
	ServerWriteFailure    = serverBase + 0x1500
	ServerSyntaxError     = serverBase + 0x2000
	ServerUnauthorized    = serverBase + 0x2100
	ServerInvalidQuery    = serverBase + 0x2200
	ServerConfigError     = serverBase + 0x2300
	ServerAlreadyExists   = serverBase + 0x2400
	ServerUnprepared      = serverBase + 0x2500
)

// SSL codes.
const (
	SSLInvalidCert       = sslBase + 1
	SSLUnableToAddCert   = sslBase + 2
	SSLInvalidPrivateKey = sslBase + 3
	SSLIdentityMismatch  = sslBase + 4
)

type description struct {
	name string
	desc string
}

var descriptions = map[Code]description{
	OK: {"OK", "ok"},

	LibBadParams:                 {"LIB_BAD_PARAMS", "bad parameters"},
	LibNoStreams:                 {"LIB_NO_STREAMS", "no streams available"},
	LibUnableToInit:              {"LIB_UNABLE_TO_INIT", "unable to initialize session"},
	LibMessageEncode:             {"LIB_MESSAGE_ENCODE", "unable to encode message"},
	LibHostResolution:            {"LIB_HOST_RESOLUTION", "unable to resolve host"},
	LibUnexpectedResponse:        {"LIB_UNEXPECTED_RESPONSE", "unexpected response from server"},
	LibRequestQueueFull:          {"LIB_REQUEST_QUEUE_FULL", "the request queue is full"},
	LibNoAvailableIOThread:       {"LIB_NO_AVAILABLE_IO_THREAD", "no available worker to process request"},
	LibWriteError:                {"LIB_WRITE_ERROR", "write error"},
	LibNoHostsAvailable:          {"LIB_NO_HOSTS_AVAILABLE", "no hosts available"},
	LibIndexOutOfBounds:          {"LIB_INDEX_OUT_OF_BOUNDS", "index out of bounds"},
	LibInvalidItemCount:          {"LIB_INVALID_ITEM_COUNT", "invalid number of items"},
	LibInvalidValueType:          {"LIB_INVALID_VALUE_TYPE", "invalid value type"},
	LibRequestTimedOut:           {"LIB_REQUEST_TIMED_OUT", "request timed out"},
	LibUnableToSetKeyspace:       {"LIB_UNABLE_TO_SET_KEYSPACE", "unable to set keyspace"},
	LibCallbackAlreadySet:        {"LIB_CALLBACK_ALREADY_SET", "callback already set"},
	LibInvalidStatementType:      {"LIB_INVALID_STATEMENT_TYPE", "invalid statement type"},
	LibNameDoesNotExist:          {"LIB_NAME_DOES_NOT_EXIST", "no value or column for name"},
	LibUnableToDetermineProtocol: {"LIB_UNABLE_TO_DETERMINE_PROTOCOL", "unable to find supported protocol version"},
	LibNullValue:                 {"LIB_NULL_VALUE", "null value"},
	LibNotImplemented:            {"LIB_NOT_IMPLEMENTED", "not implemented"},
	LibUnableToConnect:           {"LIB_UNABLE_TO_CONNECT", "unable to connect"},
	LibUnableToClose:             {"LIB_UNABLE_TO_CLOSE", "unable to close"},
	LibParameterUnset:            {"LIB_PARAMETER_UNSET", "parameter unset"},
	LibInvalidParameterCount:     {"LIB_INVALID_PARAMETER_COUNT", "invalid parameter count"},

	ServerServerError:     {"SERVER_SERVER_ERROR", "server error"},
	ServerProtocolError:   {"SERVER_PROTOCOL_ERROR", "protocol error"},
	ServerBadCredentials:  {"SERVER_BAD_CREDENTIALS", "bad credentials"},
	ServerUnavailable:     {"SERVER_UNAVAILABLE", "unavailable"},
	ServerOverloaded:      {"SERVER_OVERLOADED", "overloaded"},
	ServerIsBootstrapping: {"SERVER_IS_BOOTSTRAPPING", "is bootstrapping"},
	ServerTruncateError:   {"SERVER_TRUNCATE_ERROR", "truncate error"},
	ServerWriteTimeout:    {"SERVER_WRITE_TIMEOUT", "write timeout"},
	ServerReadTimeout:     {"SERVER_READ_TIMEOUT", "read timeout"},
	ServerReadFailure:     {"SERVER_READ_FAILURE", "read failure"},
	ServerFunctionFailure: {"SERVER_FUNCTION_FAILURE", "function failure"},
	ServerWriteFailure:    {"SERVER_WRITE_FAILURE", "write failure"},
	ServerSyntaxError:     {"SERVER_SYNTAX_ERROR", "syntax error"},
	ServerUnauthorized:    {"SERVER_UNAUTHORIZED", "unauthorized"},
	ServerInvalidQuery:    {"SERVER_INVALID_QUERY", "invalid query"},
	ServerConfigError:     {"SERVER_CONFIG_ERROR", "configuration error"},
	ServerAlreadyExists:   {"SERVER_ALREADY_EXISTS", "already exists"},
	ServerUnprepared:      {"SERVER_UNPREPARED", "unprepared"},

	SSLInvalidCert:       {"SSL_INVALID_CERT", "unable to load certificate"},
	SSLUnableToAddCert:   {"SSL_UNABLE_TO_ADD_CERT", "unable to add certificate"},
	SSLInvalidPrivateKey: {"SSL_INVALID_PRIVATE_KEY", "unable to load private key"},
	SSLIdentityMismatch:  {"SSL_IDENTITY_MISMATCH", "peer identity mismatch"},
}

// Source returns the layer that produced the code.
func (c Code) Source() Source {
	return Source(uint32(c) >> 24)
}

// String returns the symbolic name of the code.
func (c Code) String() string {
	if d, ok := descriptions[c]; ok {
		return d.name
	}
	return fmt.Sprintf("%s_UNKNOWN(0x%06x)", c.Source(), uint32(c)&0xFFFFFF)
}

// Description returns the human readable message for the code.
func (c Code) Description() string {
	if d, ok := descriptions[c]; ok {
		return d.desc
	}
	return "unknown error"
}

// Error is the error type returned by every fallible operation in cqlbind.
type Error struct {
	Code    Code
	Message string

	cause error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code.Description()
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Is reports whether target is an *Error carrying the same code, so sentinels
// match regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Sentinels for errors.Is comparisons.
var (
	ErrBadParams          = &Error{Code: LibBadParams}
	ErrIndexOutOfBounds   = &Error{Code: LibIndexOutOfBounds}
	ErrInvalidValueType   = &Error{Code: LibInvalidValueType}
	ErrInvalidItemCount   = &Error{Code: LibInvalidItemCount}
	ErrNameDoesNotExist   = &Error{Code: LibNameDoesNotExist}
	ErrNullValue          = &Error{Code: LibNullValue}
	ErrNotImplemented     = &Error{Code: LibNotImplemented}
	ErrParameterUnset     = &Error{Code: LibParameterUnset}
	ErrInvalidParamCount  = &Error{Code: LibInvalidParameterCount}
	ErrCallbackAlreadySet = &Error{Code: LibCallbackAlreadySet}
	ErrRequestTimedOut    = &Error{Code: LibRequestTimedOut}
	ErrNoHostsAvailable   = &Error{Code: LibNoHostsAvailable}
)

// Build maps a status code to an error. OK yields nil.
func Build(code Code) error {
	if code == OK {
		return nil
	}
	return &Error{Code: code, Message: code.Description()}
}

// Wrap returns v together with the error built from code. Callers use it as
// the last step of every operation: do the call, check the status, wrap.
func Wrap[T any](code Code, v T) (T, error) {
	return v, Build(code)
}

// Newf builds an error for code with a specific message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause builds an error for code that keeps cause reachable through
// errors.Unwrap.
func WithCause(code Code, cause error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// CodeOf returns the code carried by err. A nil error is OK; errors that do not
// carry a code report false.
func CodeOf(err error) (Code, bool) {
	if err == nil {
		return OK, true
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return OK, false
}

// StatusCode renders the code of err for metric labels.
func StatusCode(err error) string {
	code, ok := CodeOf(err)
	if !ok {
		return "unknown"
	}
	return code.String()
}

func hasSource(err error, src Source) bool {
	code, ok := CodeOf(err)
	return ok && err != nil && code.Source() == src
}

// IsLibrary reports whether err was raised on the client side.
func IsLibrary(err error) bool { return hasSource(err, SourceLib) }

// IsServer reports whether err was returned by the server.
func IsServer(err error) bool { return hasSource(err, SourceServer) }

// IsSSL reports whether err came from TLS setup or negotiation.
func IsSSL(err error) bool { return hasSource(err, SourceSSL) }

// IsConnection reports whether err means no usable connection could be
// established: no hosts, connect failure, TLS or authentication errors.
func IsConnection(err error) bool {
	code, ok := CodeOf(err)
	if !ok || err == nil {
		return false
	}
	switch code {
	case LibNoHostsAvailable, LibUnableToConnect, LibHostResolution, ServerBadCredentials:
		return true
	}
	return code.Source() == SourceSSL
}

// IsTimeout reports whether err is a client or server side timeout.
func IsTimeout(err error) bool {
	code, ok := CodeOf(err)
	if !ok || err == nil {
		return false
	}
	switch code {
	case LibRequestTimedOut, ServerReadTimeout, ServerWriteTimeout:
		return true
	}
	return false
}
