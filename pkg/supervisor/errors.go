package supervisor

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrAlreadyRunning is returned by Start when a worker is already tracked.
	ErrAlreadyRunning = errors.New("worker already running")
	// ErrNotRunning is returned by Stop and Inspect when no worker is tracked.
	ErrNotRunning = errors.New("worker not running")

	ErrSpawnFailed     = errors.New("spawn failed")
	ErrTerminateFailed = errors.New("terminate failed")
	ErrWaitFailed      = errors.New("wait failed")
	ErrCheckFailed     = errors.New("status check failed")
)

// kindError ties an OS-level cause to one of the sentinels above. Is matches
// the sentinel and Unwrap exposes the cause, so the standard library and
// cockroachdb errors.Is both see either one.
type kindError struct {
	kind  error
	msg   string
	cause error
}

func (e *kindError) Error() string { return e.msg + ": " + e.cause.Error() }

func (e *kindError) Unwrap() error { return e.cause }

func (e *kindError) Is(target error) bool { return target == e.kind }

// markf wraps cause with a message and tags it with kind.
func markf(cause error, kind error, format string, args ...interface{}) error {
	return errors.WithStack(&kindError{
		kind:  kind,
		msg:   fmt.Sprintf(format, args...),
		cause: cause,
	})
}

// ErrorKind returns a short stable identifier for errors produced by the
// supervisor, or "internal" for anything else.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlreadyRunning):
		return "already_running"
	case errors.Is(err, ErrNotRunning):
		return "not_running"
	case errors.Is(err, ErrSpawnFailed):
		return "spawn_failed"
	case errors.Is(err, ErrTerminateFailed):
		return "terminate_failed"
	case errors.Is(err, ErrWaitFailed):
		return "wait_failed"
	case errors.Is(err, ErrCheckFailed):
		return "check_failed"
	default:
		return "internal"
	}
}
