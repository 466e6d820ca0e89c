package converse

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
)

// ConsoleSurface renders a conversation as plain lines on a writer. It backs
// the one-shot `duet ask` command, where there is no input area to manage.
// It is safe for concurrent use because the checker message arrives on a
// timer goroutine.
type ConsoleSurface struct {
	mu         sync.Mutex
	out        io.Writer
	transcript Transcript
	enabled    bool
	echoUser   bool
}

// NewConsoleSurface writes to out. With echoUser unset, the user's own
// message is recorded but not printed.
func NewConsoleSurface(out io.Writer, echoUser bool) *ConsoleSurface {
	return &ConsoleSurface{out: out, enabled: true, echoUser: echoUser}
}

func (s *ConsoleSurface) ClearInput() {}

func (s *ConsoleSurface) SetInputEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

func (s *ConsoleSurface) FocusInput() {}

func (s *ConsoleSurface) AppendMessage(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript.Append(msg)
	if msg.Role == RoleUser && !s.echoUser {
		return
	}
	fmt.Fprintf(s.out, "[%s]\n%s\n\n", msg.Role.Label(), PlainText(msg.Content))
}

func (s *ConsoleSurface) AppendMarker(marker Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript.ShowMarker(marker)
}

func (s *ConsoleSurface) RemoveMarker(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript.RemoveMarker(id)
}

func (s *ConsoleSurface) ScrollToBottom() {}

// InputEnabled reports the input state last set by the controller.
func (s *ConsoleSurface) InputEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Messages returns what has been rendered so far.
func (s *ConsoleSurface) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Messages()
}

// PlainText strips terminal escape sequences and control characters other
// than newlines and tabs, so message content is shown as text only.
func PlainText(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || (r >= 0x7f && r <= 0x9f) {
			return -1
		}
		return r
	}, s)
}
