package hostfuncs

import (
	stdErrors "errors"
	"fmt"

	nnerrors "github.com/wasinn-dev/wasinn-sdk/domain/errors"
)

// Errno is the status a host function returns to the guest.
type Errno uint32

// Status codes of wasi_ephemeral_nn.
const (
	ErrnoSuccess Errno = iota
	ErrnoInvalidArgument
	ErrnoInvalidEncoding
	ErrnoMissingMemory
	ErrnoBusy
	ErrnoRuntimeError
	ErrnoUnsupportedOperation
	ErrnoTooLarge
	ErrnoNotFound
)

var errnoNames = [...]string{
	"success",
	"invalid_argument",
	"invalid_encoding",
	"missing_memory",
	"busy",
	"runtime_error",
	"unsupported_operation",
	"too_large",
	"not_found",
}

func (e Errno) String() string {
	if int(e) < len(errnoNames) {
		return errnoNames[e]
	}
	return fmt.Sprintf("errno(%d)", uint32(e))
}

// Error carries an Errno through ordinary Go error returns. Backends return
// it to choose the status the guest sees.
type Error struct {
	Err     error
	Message string
	Errno   Errno
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Errno, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Errno, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates an Error with the given status.
func Errorf(errno Errno, format string, args ...any) *Error {
	return &Error{Errno: errno, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a status to err.
func WrapError(errno Errno, message string, err error) *Error {
	return &Error{Errno: errno, Message: message, Err: err}
}

// ErrnoOf picks the status for err. Errors without an explicit status map
// to runtime_error, except memory failures: an out-of-range guest pointer is
// invalid_argument and an oversized request is too_large.
func ErrnoOf(err error) Errno {
	if err == nil {
		return ErrnoSuccess
	}
	var e *Error
	if stdErrors.As(err, &e) {
		return e.Errno
	}
	var me *nnerrors.MemoryError
	if stdErrors.As(err, &me) {
		if me.Op == "alloc" {
			return ErrnoTooLarge
		}
		return ErrnoInvalidArgument
	}
	return ErrnoRuntimeError
}
