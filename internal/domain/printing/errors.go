package printing

import (
	"errors"
	"strings"
)

// ErrorKind classifies a printing failure
type ErrorKind string

const (
	KindNoDefaultPrinter    ErrorKind = "NO_DEFAULT_PRINTER"
	KindUnsuitablePrinter   ErrorKind = "UNSUITABLE_PRINTER"
	KindTempFileIO          ErrorKind = "TEMP_FILE_IO"
	KindEngineUnavailable   ErrorKind = "ENGINE_UNAVAILABLE"
	KindEngineTimeout       ErrorKind = "ENGINE_TIMEOUT"
	KindSpoolRejected       ErrorKind = "SPOOL_REJECTED"
	KindOSQueryFailed       ErrorKind = "OS_QUERY_FAILED"
	KindPlatformUnsupported ErrorKind = "PLATFORM_UNSUPPORTED"
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	return string(k)
}

// IsValid checks if the ErrorKind is a known value
func (k ErrorKind) IsValid() bool {
	switch k {
	case KindNoDefaultPrinter, KindUnsuitablePrinter, KindTempFileIO,
		KindEngineUnavailable, KindEngineTimeout, KindSpoolRejected,
		KindOSQueryFailed, KindPlatformUnsupported:
		return true
	}
	return false
}

// summary is the human readable prefix used in error messages
func (k ErrorKind) summary() string {
	switch k {
	case KindNoDefaultPrinter:
		return "no default printer configured"
	case KindUnsuitablePrinter:
		return "printer is not suitable for receipts"
	case KindTempFileIO:
		return "failed to prepare print file"
	case KindEngineUnavailable:
		return "render engine unavailable"
	case KindEngineTimeout:
		return "render engine timed out"
	case KindSpoolRejected:
		return "spooler rejected the job"
	case KindOSQueryFailed:
		return "printer query failed"
	case KindPlatformUnsupported:
		return "silent printing is only supported on Windows"
	}
	return "print failed"
}

// PrintError is the typed failure returned by every printing operation.
// Two PrintErrors match under errors.Is when their kinds are equal.
type PrintError struct {
	Kind   ErrorKind
	Detail string
	Cause  error
}

// NewPrintError creates a new PrintError
func NewPrintError(kind ErrorKind, detail string, cause error) *PrintError {
	return &PrintError{
		Kind:   kind,
		Detail: strings.TrimSpace(detail),
		Cause:  cause,
	}
}

func (e *PrintError) Error() string {
	msg := e.Kind.summary()
	if e.Detail != "" {
		msg += ": " + e.Detail
	} else if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PrintError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a PrintError of the same kind
func (e *PrintError) Is(target error) bool {
	t, ok := target.(*PrintError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel errors for errors.Is comparisons
var (
	ErrNoDefaultPrinter    = &PrintError{Kind: KindNoDefaultPrinter}
	ErrUnsuitablePrinter   = &PrintError{Kind: KindUnsuitablePrinter}
	ErrTempFileIO          = &PrintError{Kind: KindTempFileIO}
	ErrEngineUnavailable   = &PrintError{Kind: KindEngineUnavailable}
	ErrEngineTimeout       = &PrintError{Kind: KindEngineTimeout}
	ErrSpoolRejected       = &PrintError{Kind: KindSpoolRejected}
	ErrOSQueryFailed       = &PrintError{Kind: KindOSQueryFailed}
	ErrPlatformUnsupported = &PrintError{Kind: KindPlatformUnsupported}
)

// KindOf extracts the ErrorKind from err. The second value is false when
// err does not carry a PrintError.
func KindOf(err error) (ErrorKind, bool) {
	var pe *PrintError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries a PrintError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
