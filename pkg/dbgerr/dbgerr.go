// Package dbgerr defines the closed set of error kinds the orchestrator can
// return to a calling agent, and a structured error type that carries the
// failing step alongside a human-readable diagnostic.
package dbgerr

import (
	"errors"
	"fmt"
)

// Kind is one of the closed set of error classes the orchestrator surfaces.
// Callers should classify errors with errors.Is against the sentinels below,
// not by comparing Kind values directly, so wrapped errors still match.
type Kind string

const (
	Config       Kind = "config"        // device missing, remote path empty when enabled
	Network      Kind = "network"       // host resolve, connect, handshake
	Auth         Kind = "auth"          // public-key rejected
	Unsupported  Kind = "unsupported"   // platform/tool missing
	Sync         Kind = "sync"          // SFTP write failed
	Sign         Kind = "sign"          // code-sign failed on required platform
	ServerLaunch Kind = "server_launch" // remote debug-server failed to start or bind
	Driver       Kind = "driver"        // local debugger spawn/connect failed
	Timeout      Kind = "timeout"       // queue wait or internal poll exceeded
	NotFound     Kind = "not_found"     // session id unknown
	Forbidden    Kind = "forbidden"     // session ownership mismatch
	Rejected     Kind = "rejected"      // blocked command
	Internal     Kind = "internal"      // invariant violation; should be unreachable
)

// Sentinel errors, one per Kind, so callers can do errors.Is(err, dbgerr.ErrTimeout).
var (
	ErrConfig       = errors.New("config error")
	ErrNetwork      = errors.New("network error")
	ErrAuth         = errors.New("auth error")
	ErrUnsupported  = errors.New("unsupported")
	ErrSync         = errors.New("sync error")
	ErrSign         = errors.New("sign error")
	ErrServerLaunch = errors.New("server launch failed")
	ErrDriver       = errors.New("driver error")
	ErrTimeout      = errors.New("timeout")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrRejected     = errors.New("rejected")
	ErrInternal     = errors.New("internal error")
)

var sentinels = map[Kind]error{
	Config:       ErrConfig,
	Network:      ErrNetwork,
	Auth:         ErrAuth,
	Unsupported:  ErrUnsupported,
	Sync:         ErrSync,
	Sign:         ErrSign,
	ServerLaunch: ErrServerLaunch,
	Driver:       ErrDriver,
	Timeout:      ErrTimeout,
	NotFound:     ErrNotFound,
	Forbidden:    ErrForbidden,
	Rejected:     ErrRejected,
	Internal:     ErrInternal,
}

// Error is the structured error value returned across the orchestrator's
// public surface. Op names the failing step (e.g. "remoteprep.sign",
// "orchestrator.start_session"); Diagnostic is an optional human-readable
// tail (e.g. the last lines of a remote log) appended to the message.
type Error struct {
	Kind       Kind
	Op         string
	Err        error
	Diagnostic string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Err)
	if e.Diagnostic != "" {
		msg += "\n" + e.Diagnostic
	}
	return msg
}

func (e *Error) Unwrap() error {
	if sentinel, ok := sentinels[e.Kind]; ok {
		return sentinel
	}
	return e.Err
}

// New builds an Error for the given kind and operation.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds an Error from a formatted message.
func Newf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// WithDiagnostic attaches a diagnostic tail (e.g. truncated remote log output).
func (e *Error) WithDiagnostic(diagnostic string) *Error {
	e.Diagnostic = diagnostic
	return e
}

// Is reports whether err is a dbgerr.Error of the given kind.
func Is(err error, kind Kind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or Internal if err is not a *Error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return Internal
}
