package audit

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

// Reader provides read access to the security_events table for the
// event listing API.
type Reader struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewReader opens a ClickHouse connection for read queries.
func NewReader(dsn string, logger *zap.Logger) (*Reader, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if opts.TLS == nil {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	return &Reader{conn: conn, logger: logger}, nil
}

// Close closes the ClickHouse connection.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// EventRow is a single persisted security event.
type EventRow struct {
	Timestamp time.Time
	SessionID string
	EventType string
	Service   string
	Data      string
}

// ListEventsParams holds filters and pagination for event listing.
type ListEventsParams struct {
	SessionID string
	EventType *string
	StartTime *time.Time
	EndTime   *time.Time
	Page      int
	PageSize  int
}

// ListEvents returns paginated, filtered security events and the total
// count matching the filters.
func (r *Reader) ListEvents(ctx context.Context, params ListEventsParams) ([]EventRow, int, error) {
	conditions := []string{"1 = 1"}
	args := []any{}

	if params.SessionID != "" {
		conditions = append(conditions, "session_id = @session_id")
		args = append(args, clickhouse.Named("session_id", params.SessionID))
	}
	if params.EventType != nil {
		conditions = append(conditions, "event_type = @event_type")
		args = append(args, clickhouse.Named("event_type", *params.EventType))
	}
	if params.StartTime != nil {
		conditions = append(conditions, "timestamp >= @start_time")
		args = append(args, clickhouse.Named("start_time", *params.StartTime))
	}
	if params.EndTime != nil {
		conditions = append(conditions, "timestamp <= @end_time")
		args = append(args, clickhouse.Named("end_time", *params.EndTime))
	}

	where := strings.Join(conditions, " AND ")

	var total uint64
	countQuery := "SELECT count() FROM security_events WHERE " + where
	if err := r.conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListEvents: count: %w", err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT timestamp, session_id, event_type, service, data
		FROM security_events
		WHERE %s
		ORDER BY timestamp DESC
		LIMIT %d OFFSET %d`, where, pageSize, offset)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListEvents: query: %w", err)
	}
	defer rows.Close()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		if err := rows.Scan(&e.Timestamp, &e.SessionID, &e.EventType, &e.Service, &e.Data); err != nil {
			return nil, 0, fmt.Errorf("ListEvents: scan: %w", err)
		}
		events = append(events, e)
	}
	return events, int(total), rows.Err()
}
