package chat

import (
	"context"
	"sync"
	"time"

	"duet/internal/chatapi"
	"duet/internal/config"
	"duet/internal/converse"

	tea "github.com/charmbracelet/bubbletea"
)

// msgRecorder stands in for (*tea.Program).Send.
type msgRecorder struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *msgRecorder) send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *msgRecorder) take() []tea.Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.msgs
	r.msgs = nil
	return out
}

// heldScheduler keeps deferred work until run is called.
type heldScheduler struct {
	mu  sync.Mutex
	fns []func()
}

func (s *heldScheduler) AfterFunc(_ time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = append(s.fns, fn)
}

func (s *heldScheduler) run() {
	s.mu.Lock()
	fns := s.fns
	s.fns = nil
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func replySender(resp *chatapi.Response, err error) converse.Sender {
	return converse.SenderFunc(func(ctx context.Context, message string) (*chatapi.Response, error) {
		return resp, err
	})
}

type testHarness struct {
	recorder  *msgRecorder
	scheduler *heldScheduler
}

// NewTestModel returns a sized model wired to sender, with surface calls
// captured instead of sent to a program.
func NewTestModel(sender converse.Sender) (Model, *testHarness) {
	h := &testHarness{recorder: &msgRecorder{}, scheduler: &heldScheduler{}}
	m := InitChat(Config{
		App:       config.DefaultConfig(),
		Sender:    sender,
		Scheduler: h.scheduler,
	})
	m.surface.attach(h.recorder.send)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model), h
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

// drain applies every captured surface call to m, in order.
func (h *testHarness) drain(m Model) Model {
	for _, msg := range h.recorder.take() {
		m, _ = update(m, msg)
	}
	return m
}

// submit presses Enter and runs the resulting command to completion.
func (h *testHarness) submit(m Model) Model {
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		return m
	}
	done := cmd()
	m = h.drain(m)
	m, _ = update(m, done)
	return m
}

func typeText(m Model, text string) Model {
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}
