package converse

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// State is the controller's submission state.
type State int32

const (
	StateIdle State = iota
	StateSending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	default:
		return "unknown"
	}
}

// Outcome reports how a Submit call ended.
type Outcome int

const (
	// OutcomeSkipped: the trimmed input was empty; nothing happened.
	OutcomeSkipped Outcome = iota
	// OutcomeBusy: another submission was in flight; nothing happened.
	OutcomeBusy
	// OutcomeDelivered: the endpoint replied and the reply was rendered.
	OutcomeDelivered
	// OutcomeFailed: the failure message was rendered.
	OutcomeFailed
)

func (o Outcome) String() string {
	return [...]string{"skipped", "busy", "delivered", "failed"}[o]
}

// DefaultCheckerDelay paces the checker message after the answerer's.
const DefaultCheckerDelay = 500 * time.Millisecond

// Controller owns the interaction lifecycle of one chat surface.
type Controller struct {
	surface      Surface
	sender       Sender
	scheduler    Scheduler
	logger       *zap.Logger
	now          func() time.Time
	checkerDelay time.Duration

	state atomic.Int32
	seq   atomic.Uint64
}

// Option customises a Controller.
type Option func(*Controller)

// WithScheduler sets the scheduler for the deferred checker message.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.scheduler = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock sets the clock used for message timestamps and marker IDs.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithCheckerDelay overrides the checker pacing delay.
func WithCheckerDelay(d time.Duration) Option {
	return func(c *Controller) { c.checkerDelay = d }
}

// NewController wires a controller to its surface and endpoint.
func NewController(surface Surface, sender Sender, opts ...Option) *Controller {
	c := &Controller{
		surface:      surface,
		sender:       sender,
		scheduler:    &TimerScheduler{},
		logger:       zap.NewNop(),
		now:          time.Now,
		checkerDelay: DefaultCheckerDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current submission state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Submit runs one submission for raw input. It blocks until the endpoint
// settles; the checker message, if any, is rendered later by the scheduler.
// Failures are rendered on the surface and logged, never returned.
func (c *Controller) Submit(ctx context.Context, raw string) Outcome {
	text := strings.TrimSpace(raw)
	if text == "" {
		return OutcomeSkipped
	}
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateSending)) {
		c.logger.Debug("submission ignored while sending")
		return OutcomeBusy
	}

	c.surface.ClearInput()
	c.surface.SetInputEnabled(false)
	c.appendMessage(RoleUser, text)

	marker := NewMarker(c.now())
	c.surface.AppendMarker(marker)
	c.surface.ScrollToBottom()

	outcome := c.exchange(ctx, text, marker)

	// Back to idle before the surface accepts input again.
	c.state.Store(int32(StateIdle))
	c.surface.SetInputEnabled(true)
	c.surface.FocusInput()
	return outcome
}

func (c *Controller) exchange(ctx context.Context, text string, marker Marker) Outcome {
	resp, err := c.sender.Send(ctx, text)
	if err != nil {
		c.logger.Warn("chat request failed", zap.Error(err))
		c.surface.RemoveMarker(marker.ID)
		c.appendMessage(RoleSystem, FailureText)
		return OutcomeFailed
	}

	c.surface.RemoveMarker(marker.ID)

	if resp.HasAnswer() {
		c.appendMessage(RoleAnswerer, resp.Answer)
	}
	if resp.HasCheck() {
		check := resp.Check
		c.scheduler.AfterFunc(c.checkerDelay, func() {
			c.appendMessage(RoleChecker, check)
		})
	}
	return OutcomeDelivered
}

func (c *Controller) appendMessage(role Role, content string) {
	c.surface.AppendMessage(Message{
		Role:    role,
		Content: content,
		Seq:     c.seq.Add(1),
		At:      c.now(),
	})
	c.surface.ScrollToBottom()
}
