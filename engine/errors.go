package engine

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/powerman/rpc-codec/jsonrpc2"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// ErrDisconnected indicates the engine connection is not established.
var ErrDisconnected = &ConnError{Op: "call", Err: errors.New("engine is disconnected")}

// APIError is an application-level error reported by the engine.
// The connection remains usable after such an error.
type APIError struct {
	// Code is the JSON-RPC error code.
	// Positive values are POSIX errno; negative values are JSON-RPC protocol errors such as malformed request.
	Code    int
	Message string
	// Details is optional structured information attached by the engine.
	Details any
}

// Errno returns the POSIX error number, or zero if Code is not an errno.
func (e *APIError) Errno() syscall.Errno {
	if e.Code <= 0 {
		return 0
	}
	return syscall.Errno(e.Code)
}

func (e *APIError) Error() string {
	errno := e.Errno()
	if errno == 0 {
		return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
	}
	name := unix.ErrnoName(errno)
	if name == "" {
		name = "<unknown>"
	}
	return fmt.Sprintf("engine error: %s (errno=%d %s: %s)", e.Message, int(errno), name, errno.Error())
}

// RPCError converts to JSON-RPC error object.
func (e *APIError) RPCError() *jsonrpc2.Error {
	return &jsonrpc2.Error{
		Code:    e.Code,
		Message: e.Message,
		Data:    e.Details,
	}
}

// NewAPIError constructs APIError from a POSIX errno.
func NewAPIError(errno syscall.Errno, message string, details any) *APIError {
	if message == "" {
		message = errno.Error()
	}
	return &APIError{
		Code:    int(errno),
		Message: message,
		Details: details,
	}
}

// FromRPCError converts JSON-RPC error object to APIError.
func FromRPCError(re *jsonrpc2.Error) *APIError {
	return &APIError{
		Code:    re.Code,
		Message: re.Message,
		Details: re.Data,
	}
}

// ConnError is a connection-level error, such as transport failure or timeout.
// After such an error, the connection should be torn down and re-established.
type ConnError struct {
	Op  string
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("engine connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// IsConnError determines whether e contains a connection-level error.
func IsConnError(e error) bool {
	var ce *ConnError
	return errors.As(e, &ce)
}

// IsAPIError determines whether e consists solely of application-level errors.
// If e combines an APIError with any other kind of error, it is not considered an APIError.
func IsAPIError(e error) bool {
	errs := multierr.Errors(e)
	if len(errs) == 0 {
		return false
	}
	for _, err := range errs {
		var ae *APIError
		if !errors.As(err, &ae) {
			return false
		}
	}
	return true
}
