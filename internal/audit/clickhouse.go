package audit

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

const (
	bufferSize    = 10_000
	flushInterval = 100 * time.Millisecond
	flushBatch    = 1000
	drainTimeout  = 2 * time.Second
)

// ClickHouseWriter writes security events to ClickHouse asynchronously.
// Write is non-blocking: events are buffered and batch-inserted by a
// background goroutine.
type ClickHouseWriter struct {
	conn    driver.Conn
	buffer  chan *Event
	done    chan struct{}
	flushed chan struct{} // closed by flushLoop when it returns
	logger  *zap.Logger
}

// NewClickHouseWriter opens the connection and starts the flush loop.
func NewClickHouseWriter(dsn string, logger *zap.Logger) (*ClickHouseWriter, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	// ParseDSN sets TLS when ?secure=true is in the DSN; enforce it for
	// hosted ClickHouse endpoints that require it.
	if opts.TLS == nil {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, err
	}

	w := &ClickHouseWriter{
		conn:    conn,
		buffer:  make(chan *Event, bufferSize),
		done:    make(chan struct{}),
		flushed: make(chan struct{}),
		logger:  logger,
	}
	go w.flushLoop()
	return w, nil
}

// Write queues an event for async insertion. Drops the event if the
// buffer is full.
func (w *ClickHouseWriter) Write(e *Event) {
	select {
	case w.buffer <- e:
	default:
		w.logger.Warn("audit buffer full, dropping event",
			zap.String("session_id", e.SessionID),
			zap.String("event_type", string(e.Type)),
		)
	}
}

// Close signals the flush loop to drain remaining events and waits for
// it to finish. Safe to call once.
func (w *ClickHouseWriter) Close() {
	close(w.done)
	<-w.flushed
}

func (w *ClickHouseWriter) flushLoop() {
	defer close(w.flushed)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*Event, 0, flushBatch)

	for {
		select {
		case e := <-w.buffer:
			batch = append(batch, e)
			if len(batch) >= flushBatch {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-w.done:
			drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			defer cancel()
		drainLoop:
			for {
				select {
				case e := <-w.buffer:
					batch = append(batch, e)
				case <-drainCtx.Done():
					break drainLoop
				default:
					break drainLoop
				}
			}
			if len(batch) > 0 {
				w.flush(batch)
			}
			return
		}
	}
}

func (w *ClickHouseWriter) flush(events []*Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	batch, err := w.conn.PrepareBatch(ctx, `
		INSERT INTO security_events (
			timestamp, session_id, event_type, service, data
		)
	`)
	if err != nil {
		w.logger.Error("audit prepare batch failed", zap.Error(err))
		return
	}

	for _, e := range events {
		data := "{}"
		if e.Data != nil {
			if raw, err := json.Marshal(e.Data); err == nil {
				data = string(raw)
			}
		}
		if err := batch.Append(
			e.Timestamp,
			e.SessionID,
			string(e.Type),
			e.Service,
			data,
		); err != nil {
			w.logger.Error("audit append event failed",
				zap.String("session_id", e.SessionID),
				zap.Error(err),
			)
		}
	}

	if err := batch.Send(); err != nil {
		w.logger.Error("audit batch send failed",
			zap.Int("batch_size", len(events)),
			zap.Error(err),
		)
	}
}
