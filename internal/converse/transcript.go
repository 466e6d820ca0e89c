package converse

// Transcript is the ordered, append-only list of rendered messages plus the
// optional pending-request marker. The zero value is ready to use.
//
// Transcript is not safe for concurrent use; surfaces own it and mutate it
// from a single goroutine.
type Transcript struct {
	messages []Message
	marker   *Marker

	// entries records the render order of messages and the marker so a
	// surface can draw the marker where it was appended.
	entries []entry
}

type entry struct {
	message int // index into messages, -1 for the marker
}

// Append adds a message to the end of the transcript.
func (t *Transcript) Append(msg Message) {
	t.messages = append(t.messages, msg)
	t.entries = append(t.entries, entry{message: len(t.messages) - 1})
}

// ShowMarker places the marker at the end of the transcript. A second marker
// replaces the first.
func (t *Transcript) ShowMarker(m Marker) {
	t.dropMarker()
	t.marker = &m
	t.entries = append(t.entries, entry{message: -1})
}

// RemoveMarker removes the marker if its ID matches. It reports whether a
// marker was removed.
func (t *Transcript) RemoveMarker(id string) bool {
	if t.marker == nil || t.marker.ID != id {
		return false
	}
	t.dropMarker()
	return true
}

func (t *Transcript) dropMarker() {
	if t.marker == nil {
		return
	}
	t.marker = nil
	for i, e := range t.entries {
		if e.message == -1 {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			break
		}
	}
}

// Messages returns a copy of the rendered messages in insertion order.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int { return len(t.messages) }

// Marker returns the current marker, if any.
func (t *Transcript) Marker() (Marker, bool) {
	if t.marker == nil {
		return Marker{}, false
	}
	return *t.marker, true
}

// Walk visits messages and the marker in render order. fn receives either a
// message (marker nil) or the marker (msg zero).
func (t *Transcript) Walk(fn func(msg Message, marker *Marker)) {
	for _, e := range t.entries {
		if e.message == -1 {
			m := *t.marker
			fn(Message{}, &m)
			continue
		}
		fn(t.messages[e.message], nil)
	}
}
