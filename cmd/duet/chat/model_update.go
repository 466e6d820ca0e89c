package chat

import (
	"strings"

	"duet/internal/converse"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"
)

const (
	headerHeight = 1
	footerHeight = 1
	inputChrome  = 2 // input border rows
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		model, cmd := m.handleKeyMsg(msg)
		return model, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.textarea.SetWidth(max(msg.Width-inputChrome, 1))
		m = m.resizeInput()
		m = m.layout()
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if _, ok := m.transcript.Marker(); !ok {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.viewport.SetContent(m.renderHistory())
		return m, cmd

	case surfaceOp:
		return msg.apply(m)

	case submitDoneMsg:
		m.lastOutcome = msg.outcome
		m.logger.Debug("submission settled", zap.Stringer("outcome", msg.outcome))
		if msg.outcome == converse.OutcomeSkipped || msg.outcome == converse.OutcomeBusy {
			// The controller never took the input; undo the local lock.
			m.inputEnabled = true
			return m, m.textarea.Focus()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// handleKeyMsg processes all keyboard input for Update.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.shutdown()
		return m, tea.Quit

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyEnter:
		if msg.Alt {
			return m.insertNewline(), nil
		}
		return m.handleSubmit()

	case tea.KeyCtrlJ:
		return m.insertNewline(), nil

	case tea.KeyCtrlS:
		// Send control
		return m.handleSubmit()
	}

	if !m.inputEnabled {
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m = m.resizeInput()
	return m, cmd
}

func (m Model) insertNewline() Model {
	if !m.inputEnabled {
		return m
	}
	m.textarea.InsertString("\n")
	return m.resizeInput()
}

// handleSubmit hands the input to the controller. The input is locked here
// so keys arriving before the controller's own disable are not applied.
func (m Model) handleSubmit() (Model, tea.Cmd) {
	if !m.inputEnabled {
		return m, nil
	}
	raw := m.textarea.Value()
	if strings.TrimSpace(raw) == "" {
		return m, nil
	}

	m.inputEnabled = false
	m.textarea.Blur()

	ctx := m.ctx
	controller := m.controller
	return m, func() tea.Msg {
		return submitDoneMsg{outcome: controller.Submit(ctx, raw)}
	}
}

// resizeInput grows the input with its content up to maxInputHeight and
// shrinks it back to one line when empty.
func (m Model) resizeInput() Model {
	lines := 1
	if m.textarea.Value() != "" {
		lines = min(m.contentRows(), m.maxInputHeight)
	}
	if lines != m.textarea.Height() {
		m.textarea.SetHeight(lines)
		m = m.layout()
	}
	return m
}

// contentRows counts the rows the input text occupies once soft-wrapped. The
// textarea keeps a column for the cursor, so a line exactly as wide as the
// input already takes a second row.
func (m Model) contentRows() int {
	width := max(m.textarea.Width(), 1)
	rows := 0
	for _, line := range strings.Split(m.textarea.Value(), "\n") {
		rows += ansi.StringWidth(line)/width + 1
	}
	return rows
}

// layout sizes the viewport to whatever the input leaves free.
func (m Model) layout() Model {
	if !m.ready {
		return m
	}
	vpHeight := m.height - headerHeight - footerHeight - m.textarea.Height() - inputChrome
	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = max(vpHeight, 1)
	return m
}
