package converse

import (
	"context"
	"sync"
	"time"

	"duet/internal/chatapi"
)

// recordingSurface logs every surface call in order and keeps a transcript.
type recordingSurface struct {
	mu         sync.Mutex
	ops        []string
	transcript Transcript
	enabled    bool
	focused    bool
	markerSeen int
	// onAppendMarker lets a test observe the state at marker time.
	onAppendMarker func()
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{enabled: true}
}

func (s *recordingSurface) record(op string) {
	s.ops = append(s.ops, op)
}

func (s *recordingSurface) ClearInput() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("clear")
}

func (s *recordingSurface) SetInputEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
	if enabled {
		s.record("enable")
	} else {
		s.record("disable")
	}
}

func (s *recordingSurface) FocusInput() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focused = true
	s.record("focus")
}

func (s *recordingSurface) AppendMessage(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript.Append(msg)
	s.record(string(msg.Role) + ":" + msg.Content)
}

func (s *recordingSurface) AppendMarker(marker Marker) {
	s.mu.Lock()
	s.transcript.ShowMarker(marker)
	s.markerSeen++
	s.record("marker+")
	hook := s.onAppendMarker
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (s *recordingSurface) RemoveMarker(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transcript.RemoveMarker(id) {
		s.record("marker-")
	}
}

func (s *recordingSurface) ScrollToBottom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("scroll")
}

// contentOps returns the recorded ops without scroll entries.
func (s *recordingSurface) contentOps() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, op := range s.ops {
		if op != "scroll" {
			out = append(out, op)
		}
	}
	return out
}

func (s *recordingSurface) messageOps() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.transcript.Messages() {
		out = append(out, string(m.Role)+":"+m.Content)
	}
	return out
}

// manualScheduler holds deferred work until Run is called.
type manualScheduler struct {
	mu     sync.Mutex
	delays []time.Duration
	fns    []func()
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.fns = append(s.fns, fn)
}

func (s *manualScheduler) Run() {
	s.mu.Lock()
	fns := s.fns
	s.fns = nil
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}

// stubSender returns a canned reply and records what it was asked.
type stubSender struct {
	mu    sync.Mutex
	resp  *chatapi.Response
	err   error
	calls []string
	// before runs inside Send, before returning.
	before func()
}

func (s *stubSender) Send(ctx context.Context, message string) (*chatapi.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, message)
	before := s.before
	s.mu.Unlock()
	if before != nil {
		before()
	}
	return s.resp, s.err
}

func (s *stubSender) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func fixedClock() func() time.Time {
	at := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return at }
}
