package chat

import (
	"strings"

	"duet/internal/converse"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	input := m.styles.InputBorder
	if !m.inputEnabled {
		input = m.styles.InputBorderDisabled
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		input.Render(m.textarea.View()),
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render("duet")
	return title + m.styles.Muted.Render(" "+m.endpoint)
}

func (m Model) renderFooter() string {
	if !m.inputEnabled {
		return m.styles.Footer.Render("waiting for reply...")
	}
	return m.styles.Footer.Render("enter send • alt+enter newline • ctrl+s send • pgup/pgdn scroll • esc quit")
}

// renderHistory renders the transcript in display order, with a divider
// before every question after the first. Content is always shown as plain
// text.
func (m Model) renderHistory() string {
	width := max(m.viewport.Width, 1)
	var blocks []string
	m.transcript.Walk(func(msg converse.Message, marker *converse.Marker) {
		if marker != nil {
			blocks = append(blocks, m.spinner.View()+" "+m.styles.Marker.Render(converse.MarkerText))
			return
		}
		if msg.Role == converse.RoleUser && len(blocks) > 0 {
			blocks = append(blocks, m.styles.RenderDivider(width))
		}
		blocks = append(blocks, m.renderMessage(msg, width))
	})
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg converse.Message, width int) string {
	label := m.styles.Label(string(msg.Role)).Render(msg.Role.Label())
	body := m.styles.Body
	if msg.Role == converse.RoleSystem {
		body = m.styles.SystemBody
	}
	text := body.Width(width).Render(converse.PlainText(msg.Content))
	return label + "\n" + text
}
