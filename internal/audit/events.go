package audit

import (
	"time"

	"github.com/vantara-media/bastion/internal/config"
)

// EventType tags a security event for the logging-level filter.
type EventType string

const (
	// EventRoutine marks clean status checks. Dropped at info level.
	EventRoutine EventType = "routine"
	// EventBreach marks an unsafe verdict. Emitted at every level.
	EventBreach EventType = "breach"

	EventSessionCreated    EventType = "session_created"
	EventSessionTerminated EventType = "session_terminated"
	EventSessionClosed     EventType = "session_closed"
)

// Event is a single security log record.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"sessionId"`
	Type      EventType      `json:"eventType"`
	Service   string         `json:"service,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Writer persists security events. Write must never block the caller.
type Writer interface {
	Write(e *Event)
	Close()
}

// Logger is the level-filtered front of the security event log. The
// record is always constructed; emission is gated by the configured
// logging level. This is a filter, not a buffer: events below the level
// are dropped, never deferred.
type Logger struct {
	level   string
	service string
	writer  Writer
}

// NewLogger creates an event logger emitting through w at the given
// logging level.
func NewLogger(level, service string, w Writer) *Logger {
	return &Logger{level: level, service: service, writer: w}
}

// Record builds the event and emits it if the level filter allows.
// The built record is returned either way.
func (l *Logger) Record(sessionID string, t EventType, data map[string]any) *Event {
	e := &Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Type:      t,
		Service:   l.service,
		Data:      data,
	}
	if l.emits(t) {
		l.writer.Write(e)
	}
	return e
}

// emits applies the level filter:
//
//	debug    every event
//	info     every event except routine
//	warning  breach only
func (l *Logger) emits(t EventType) bool {
	switch l.level {
	case config.LogDebug:
		return true
	case config.LogWarning:
		return t == EventBreach
	default: // info
		return t != EventRoutine
	}
}

// Close flushes and closes the underlying writer.
func (l *Logger) Close() {
	l.writer.Close()
}
