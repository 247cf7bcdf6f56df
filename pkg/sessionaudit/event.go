// Package sessionaudit records an immutable trail of session lifecycle
// events. The orchestrator calls it as a side effect only: a logging
// failure never fails a session operation.
package sessionaudit

import (
	"fmt"
	"time"
)

// Operation names the kind of lifecycle event recorded.
type Operation string

const (
	OpSessionStart        Operation = "session.start"
	OpSessionCommand      Operation = "session.command"
	OpSessionStop         Operation = "session.stop"
	OpSessionCrashCleanup Operation = "session.crash_cleanup"
)

// Event is one auditable session lifecycle record.
type Event struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Agent     string        `json:"agent"`
	Device    string        `json:"device,omitempty"`
	Session   string        `json:"session,omitempty"`
	Operation Operation     `json:"operation"`
	Command   string        `json:"command,omitempty"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Filter narrows a Query call.
type Filter struct {
	Device      string
	Agent       string
	Since       time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
}

// NewEvent constructs an Event for agent/operation with the current time.
func NewEvent(agent string, op Operation) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		Agent:     agent,
		Operation: op,
	}
}

func (e *Event) WithDevice(deviceID string) *Event {
	e.Device = deviceID
	return e
}

func (e *Event) WithSession(sessionID string) *Event {
	e.Session = sessionID
	return e
}

func (e *Event) WithCommand(command string) *Event {
	e.Command = command
	return e
}

func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
