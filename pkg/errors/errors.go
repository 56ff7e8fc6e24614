package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies a failure by what the runner should do about it.
type ErrorType string

const (
	// ErrorTypeProbe is a UI element probe that came back empty. Probes
	// are expected to miss; callers branch on the miss, they do not fail.
	ErrorTypeProbe ErrorType = "probe"
	// ErrorTypeNavigation means a screen or popup could not be reached.
	// The unit being navigated to (source, post) is skipped.
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeDevice is a transport failure talking to the device agent
	// or adb. Retryable.
	ErrorTypeDevice ErrorType = "device"
	// ErrorTypePersistence is a database write failure. Logged, never fatal
	// to the crawl.
	ErrorTypePersistence ErrorType = "persistence"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeLicense    ErrorType = "license"
	// ErrorTypeLaunch means the Instagram app could not be started or
	// brought to a known screen.
	ErrorTypeLaunch   ErrorType = "launch"
	ErrorTypeWorkflow ErrorType = "workflow"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error carries the failure class and the operation that produced it.
type Error struct {
	Type    ErrorType
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %s: %v", e.Type, e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a typed error with a message.
func New(t ErrorType, op, message string) *Error {
	return &Error{Type: t, Op: op, Message: message}
}

// Newf builds a typed error with a formatted message.
func Newf(t ErrorType, op, format string, args ...any) *Error {
	return &Error{Type: t, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a type and operation to an underlying error. Returns nil
// when err is nil so call sites can wrap unconditionally.
func Wrap(t ErrorType, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Type: t, Op: op, Err: err}
}

// TypeOf extracts the error type, walking wrapped errors. Unclassified
// errors report ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsRetryable reports whether an operation that failed with this error
// is worth retrying. Only device transport failures qualify; everything
// else either resolves by skipping the unit or not at all.
func IsRetryable(err error) bool {
	return TypeOf(err) == ErrorTypeDevice
}
