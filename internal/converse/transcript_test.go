package converse

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscript_AppendOnlyOrder(t *testing.T) {
	var tr Transcript
	tr.Append(Message{Role: RoleUser, Content: "q"})
	tr.Append(Message{Role: RoleAnswerer, Content: "a"})

	msgs := tr.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, RoleAnswerer, msgs[1].Role)

	// Returned slice is a copy.
	msgs[0].Content = "mutated"
	assert.Equal(t, "q", tr.Messages()[0].Content)
}

func TestTranscript_MarkerLifecycle(t *testing.T) {
	var tr Transcript
	tr.Append(Message{Role: RoleUser, Content: "q"})
	tr.ShowMarker(Marker{ID: "loading-1"})

	m, ok := tr.Marker()
	require.True(t, ok)
	assert.Equal(t, "loading-1", m.ID)

	assert.False(t, tr.RemoveMarker("loading-2"), "unknown id is a no-op")
	_, ok = tr.Marker()
	assert.True(t, ok)

	assert.True(t, tr.RemoveMarker("loading-1"))
	assert.False(t, tr.RemoveMarker("loading-1"), "removal happens once")
	_, ok = tr.Marker()
	assert.False(t, ok)
	assert.Equal(t, 1, tr.Len())
}

func TestTranscript_AtMostOneMarker(t *testing.T) {
	var tr Transcript
	tr.ShowMarker(Marker{ID: "loading-1"})
	tr.ShowMarker(Marker{ID: "loading-2"})

	var markers int
	tr.Walk(func(_ Message, marker *Marker) {
		if marker != nil {
			markers++
			assert.Equal(t, "loading-2", marker.ID)
		}
	})
	assert.Equal(t, 1, markers)
}

func TestTranscript_WalkRenderOrder(t *testing.T) {
	var tr Transcript
	tr.Append(Message{Role: RoleUser, Content: "q"})
	tr.ShowMarker(Marker{ID: "loading-1"})
	tr.Append(Message{Role: RoleChecker, Content: "late check"})

	var order []string
	tr.Walk(func(msg Message, marker *Marker) {
		if marker != nil {
			order = append(order, "marker")
			return
		}
		order = append(order, string(msg.Role))
	})
	assert.Equal(t, []string{"user", "marker", "checker"}, order)
}

func TestNewMarker(t *testing.T) {
	at := time.UnixMilli(1760779800123)
	assert.Equal(t, "loading-1760779800123", NewMarker(at).ID)
}

func TestRoleLabel(t *testing.T) {
	assert.Equal(t, "You", RoleUser.Label())
	assert.Equal(t, "问题回答者", RoleAnswerer.Label())
	assert.Equal(t, "检查者", RoleChecker.Label())
	assert.Equal(t, "System", RoleSystem.Label())
	assert.Equal(t, "custom", Role("custom").Label())
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "red text", PlainText("\x1b[31mred\x1b[0m text"))
	assert.Equal(t, "title", PlainText("\x1b]0;title\x07"+"title"))
	assert.Equal(t, "line1\nline2\tend", PlainText("line1\nline2\tend\r"))
	assert.Equal(t, "<b>kept literally</b>", PlainText("<b>kept literally</b>"))
}

func TestConsoleSurface(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSurface(&buf, false)

	s.SetInputEnabled(false)
	s.AppendMessage(Message{Role: RoleUser, Content: "question"})
	s.AppendMarker(Marker{ID: "loading-1"})
	s.RemoveMarker("loading-1")
	s.AppendMessage(Message{Role: RoleAnswerer, Content: "\x1b[1manswer\x1b[0m"})
	s.SetInputEnabled(true)

	assert.True(t, s.InputEnabled())
	assert.Len(t, s.Messages(), 2)
	assert.NotContains(t, buf.String(), "question")
	assert.Equal(t, "[问题回答者]\nanswer\n\n", buf.String())
}
