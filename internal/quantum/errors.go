package quantum

import (
	"errors"
	"fmt"
)

// FailureKind classifies bridge failures
type FailureKind int

const (
	// BackendError covers spawn failures, non-zero exits, crashes and timeouts
	BackendError FailureKind = iota + 1
	// ProtocolError covers unparseable or incomplete backend output
	ProtocolError
	// SizeMismatch means the backend answered with the wrong variable count
	SizeMismatch
	// Exhausted means every variant and retry failed
	Exhausted
)

var (
	ErrBackend      = errors.New("backend error")
	ErrProtocol     = errors.New("protocol error")
	ErrSizeMismatch = errors.New("size mismatch")
	ErrExhausted    = errors.New("backend exhausted")
)

// String returns the metric label of the kind
func (k FailureKind) String() string {
	switch k {
	case BackendError:
		return "backend_error"
	case ProtocolError:
		return "protocol_error"
	case SizeMismatch:
		return "size_mismatch"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

func (k FailureKind) sentinel() error {
	switch k {
	case BackendError:
		return ErrBackend
	case ProtocolError:
		return ErrProtocol
	case SizeMismatch:
		return ErrSizeMismatch
	case Exhausted:
		return ErrExhausted
	default:
		return nil
	}
}

// Failure is the error type returned by backends and the bridge
type Failure struct {
	Kind        FailureKind
	Message     string
	Diagnostics string
	Err         error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s: %s", f.Kind, f.Message)
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	if f.Diagnostics != "" {
		msg += " (" + f.Diagnostics + ")"
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Err }

// Is matches the sentinel of the failure kind
func (f *Failure) Is(target error) bool {
	s := f.Kind.sentinel()
	return s != nil && target == s
}

// Recoverable reports whether the supervisor may retry after this failure
func (f *Failure) Recoverable() bool {
	return f.Kind == BackendError || f.Kind == ProtocolError
}

func backendFailure(msg, stderr string, err error) *Failure {
	return &Failure{Kind: BackendError, Message: msg, Diagnostics: stderr, Err: err}
}

func protocolFailure(format string, args ...interface{}) *Failure {
	return &Failure{Kind: ProtocolError, Message: fmt.Sprintf(format, args...)}
}

func sizeMismatch(got, want int) *Failure {
	return &Failure{Kind: SizeMismatch, Message: fmt.Sprintf("backend returned %d variables, want %d", got, want)}
}

// kindOf extracts the failure kind of err, zero when err is not a Failure
func kindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}

// recoverable reports whether err may be retried on another attempt
func recoverable(err error) bool {
	var f *Failure
	if errors.As(err, &f) {
		return f.Recoverable()
	}
	return false
}
