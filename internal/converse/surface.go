package converse

import (
	"context"
	"sync"
	"time"

	"duet/internal/chatapi"
)

// Surface is the rendering surface the controller drives: an input area, a
// send control, and a transcript container.
type Surface interface {
	// ClearInput empties the input and resets its height to the default.
	ClearInput()
	// SetInputEnabled enables or disables both the input and the send control.
	SetInputEnabled(enabled bool)
	// FocusInput returns focus to the input.
	FocusInput()
	// AppendMessage renders msg at the end of the transcript as plain text.
	AppendMessage(msg Message)
	// AppendMarker renders the working indicator at the end of the transcript.
	AppendMarker(marker Marker)
	// RemoveMarker removes the marker with the given ID, if present.
	RemoveMarker(id string)
	// ScrollToBottom makes the newest content visible.
	ScrollToBottom()
}

// Sender issues the single network call of a submission.
type Sender interface {
	Send(ctx context.Context, message string) (*chatapi.Response, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, message string) (*chatapi.Response, error)

func (f SenderFunc) Send(ctx context.Context, message string) (*chatapi.Response, error) {
	return f(ctx, message)
}

// Scheduler runs deferred, fire-and-forget work.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// TimerScheduler schedules with time.AfterFunc and can wait for everything it
// scheduled to finish.
type TimerScheduler struct {
	wg sync.WaitGroup
}

// AfterFunc runs fn after d on its own goroutine.
func (s *TimerScheduler) AfterFunc(d time.Duration, fn func()) {
	s.wg.Add(1)
	time.AfterFunc(d, func() {
		defer s.wg.Done()
		fn()
	})
}

// Wait blocks until every scheduled function has run.
func (s *TimerScheduler) Wait() {
	s.wg.Wait()
}
