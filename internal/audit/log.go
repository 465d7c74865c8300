package audit

import (
	"go.uber.org/zap"
)

// LogWriter is the fallback Writer used when no ClickHouse DSN is
// configured. Events are emitted as structured JSON through zap.
type LogWriter struct {
	logger *zap.Logger
}

// NewLogWriter creates a LogWriter emitting through the given logger.
func NewLogWriter(logger *zap.Logger) *LogWriter {
	return &LogWriter{logger: logger}
}

func (w *LogWriter) Write(e *Event) {
	w.logger.Info("security_event",
		zap.Time("timestamp", e.Timestamp),
		zap.String("session_id", e.SessionID),
		zap.String("event_type", string(e.Type)),
		zap.String("service", e.Service),
		zap.Any("data", e.Data),
	)
}

func (w *LogWriter) Close() {}
