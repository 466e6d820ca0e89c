package chat

import (
	"sync"

	"duet/internal/converse"

	tea "github.com/charmbracelet/bubbletea"
)

// surfaceOp is a converse.Surface call delivered to the program as a message,
// so every change to model state happens inside Update.
type surfaceOp interface {
	apply(m Model) (Model, tea.Cmd)
}

type (
	clearInputMsg    struct{}
	inputEnabledMsg  struct{ enabled bool }
	focusInputMsg    struct{}
	appendMessageMsg struct{ msg converse.Message }
	appendMarkerMsg  struct{ marker converse.Marker }
	removeMarkerMsg  struct{ id string }
	scrollBottomMsg  struct{}
)

// submitDoneMsg is returned by the submit command once the controller settles.
type submitDoneMsg struct {
	outcome converse.Outcome
}

// teaSurface implements converse.Surface by forwarding each call to a running
// program. Calls made before attach, or after the program exits, are dropped.
type teaSurface struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

func newTeaSurface() *teaSurface {
	return &teaSurface{}
}

// attach routes surface calls to send, normally (*tea.Program).Send.
func (s *teaSurface) attach(send func(tea.Msg)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.send = send
}

func (s *teaSurface) post(msg tea.Msg) {
	s.mu.RLock()
	send := s.send
	s.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}

func (s *teaSurface) ClearInput() { s.post(clearInputMsg{}) }

func (s *teaSurface) SetInputEnabled(enabled bool) { s.post(inputEnabledMsg{enabled: enabled}) }

func (s *teaSurface) FocusInput() { s.post(focusInputMsg{}) }

func (s *teaSurface) AppendMessage(msg converse.Message) { s.post(appendMessageMsg{msg: msg}) }

func (s *teaSurface) AppendMarker(marker converse.Marker) { s.post(appendMarkerMsg{marker: marker}) }

func (s *teaSurface) RemoveMarker(id string) { s.post(removeMarkerMsg{id: id}) }

func (s *teaSurface) ScrollToBottom() { s.post(scrollBottomMsg{}) }

func (clearInputMsg) apply(m Model) (Model, tea.Cmd) {
	m.textarea.Reset()
	m = m.resizeInput()
	return m, nil
}

func (op inputEnabledMsg) apply(m Model) (Model, tea.Cmd) {
	m.inputEnabled = op.enabled
	if !op.enabled {
		m.textarea.Blur()
	}
	return m, nil
}

func (focusInputMsg) apply(m Model) (Model, tea.Cmd) {
	if !m.inputEnabled {
		return m, nil
	}
	return m, m.textarea.Focus()
}

func (op appendMessageMsg) apply(m Model) (Model, tea.Cmd) {
	m.transcript.Append(op.msg)
	m.viewport.SetContent(m.renderHistory())
	return m, nil
}

func (op appendMarkerMsg) apply(m Model) (Model, tea.Cmd) {
	m.transcript.ShowMarker(op.marker)
	m.viewport.SetContent(m.renderHistory())
	return m, m.spinner.Tick
}

func (op removeMarkerMsg) apply(m Model) (Model, tea.Cmd) {
	if m.transcript.RemoveMarker(op.id) {
		m.viewport.SetContent(m.renderHistory())
	}
	return m, nil
}

func (scrollBottomMsg) apply(m Model) (Model, tea.Cmd) {
	m.viewport.GotoBottom()
	return m, nil
}
