package audit

import (
	"testing"

	"github.com/vantara-media/bastion/internal/config"
)

type memWriter struct {
	events []*Event
	closed bool
}

func (w *memWriter) Write(e *Event) { w.events = append(w.events, e) }
func (w *memWriter) Close()         { w.closed = true }

func TestLogger_LevelFilter(t *testing.T) {
	all := []EventType{EventRoutine, EventBreach, EventSessionCreated, EventSessionTerminated, EventSessionClosed}

	cases := []struct {
		level string
		want  []EventType
	}{
		{config.LogDebug, all},
		{config.LogInfo, []EventType{EventBreach, EventSessionCreated, EventSessionTerminated, EventSessionClosed}},
		{config.LogWarning, []EventType{EventBreach}},
	}

	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			w := &memWriter{}
			l := NewLogger(tc.level, "svc", w)
			for _, typ := range all {
				l.Record("s1", typ, nil)
			}
			if len(w.events) != len(tc.want) {
				t.Fatalf("emitted %d events, want %d", len(w.events), len(tc.want))
			}
			for i, e := range w.events {
				if e.Type != tc.want[i] {
					t.Errorf("event %d type = %s, want %s", i, e.Type, tc.want[i])
				}
			}
		})
	}
}

func TestLogger_RecordReturnsEventEvenWhenFiltered(t *testing.T) {
	w := &memWriter{}
	l := NewLogger(config.LogWarning, "svc", w)

	e := l.Record("s1", EventRoutine, map[string]any{"secure": true})
	if e == nil {
		t.Fatal("expected record to be built")
	}
	if e.SessionID != "s1" || e.Type != EventRoutine || e.Service != "svc" {
		t.Errorf("unexpected record: %+v", e)
	}
	if e.Timestamp.IsZero() {
		t.Error("record missing timestamp")
	}
	if len(w.events) != 0 {
		t.Errorf("filtered event was emitted: %+v", w.events)
	}
}

func TestLogger_Close(t *testing.T) {
	w := &memWriter{}
	NewLogger(config.LogDebug, "svc", w).Close()
	if !w.closed {
		t.Error("close did not reach the writer")
	}
}
