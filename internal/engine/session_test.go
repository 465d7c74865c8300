package engine

import (
	"testing"
	"time"
)

func newActiveSession(id string) *Session {
	return &Session{
		ID:        id,
		StartTime: time.Now(),
		Status:    StatusActive,
	}
}

func TestSessionStore_InsertAndGet(t *testing.T) {
	st := NewSessionStore()

	if !st.Insert(newActiveSession("s1")) {
		t.Fatal("insert failed")
	}
	if st.Insert(newActiveSession("s1")) {
		t.Error("duplicate insert must be rejected")
	}

	s, ok := st.Get("s1")
	if !ok || s.Status != StatusActive {
		t.Errorf("unexpected session: %+v ok=%v", s, ok)
	}
	if _, ok := st.Get("nope"); ok {
		t.Error("expected miss for unknown id")
	}
}

func TestSessionStore_TerminateTransitions(t *testing.T) {
	st := NewSessionStore()
	st.Insert(newActiveSession("s1"))

	now := time.Now()
	s, ok := st.Terminate("s1", "abuse", now)
	if !ok {
		t.Fatal("expected session to exist")
	}
	if s.Status != StatusTerminated || s.TerminatedReason != "abuse" || s.TerminatedAt == nil {
		t.Errorf("unexpected state after terminate: %+v", s)
	}

	// Terminating again re-stamps, never transitions.
	later := now.Add(time.Second)
	s, _ = st.Terminate("s1", "again", later)
	if s.Status != StatusTerminated {
		t.Errorf("expected terminated, got %s", s.Status)
	}
	if !s.TerminatedAt.Equal(later) {
		t.Error("expected terminatedAt re-stamp")
	}

	if _, ok := st.Terminate("ghost", "x", now); ok {
		t.Error("expected miss for unknown id")
	}
}

func TestSessionStore_CloseTransitions(t *testing.T) {
	st := NewSessionStore()
	st.Insert(newActiveSession("s1"))

	now := time.Now()
	s, ok := st.Close("s1", now)
	if !ok || s.Status != StatusClosed || s.ClosedAt == nil {
		t.Fatalf("unexpected state after close: %+v ok=%v", s, ok)
	}

	// Closing a terminated session keeps it terminated.
	st.Insert(newActiveSession("s2"))
	st.Terminate("s2", "abuse", now)
	s, _ = st.Close("s2", now.Add(time.Second))
	if s.Status != StatusTerminated {
		t.Errorf("terminal status must absorb close, got %s", s.Status)
	}

	// Terminating a closed session keeps it closed.
	s, _ = st.Terminate("s1", "late", now.Add(time.Second))
	if s.Status != StatusClosed {
		t.Errorf("terminal status must absorb terminate, got %s", s.Status)
	}
}

func TestSessionStore_EntriesAreNeverDeleted(t *testing.T) {
	st := NewSessionStore()
	st.Insert(newActiveSession("s1"))
	st.Terminate("s1", "abuse", time.Now())
	st.Close("s1", time.Now())

	if st.Len() != 1 {
		t.Errorf("expected soft-terminal entry to remain, len = %d", st.Len())
	}
	if _, ok := st.Get("s1"); !ok {
		t.Error("terminal session must remain readable")
	}
}

func TestSessionStatus_Terminal(t *testing.T) {
	cases := []struct {
		status SessionStatus
		want   bool
	}{
		{StatusActive, false},
		{StatusTerminated, true},
		{StatusClosed, true},
	}
	for _, tc := range cases {
		if got := tc.status.Terminal(); got != tc.want {
			t.Errorf("%s.Terminal() = %v, want %v", tc.status, got, tc.want)
		}
	}
}
