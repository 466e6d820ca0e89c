// Package chat implements the interactive terminal chat: a transcript
// viewport, a growing input area and a send control, driven by a
// converse.Controller.
package chat

import (
	"context"

	"duet/cmd/duet/ui"
	"duet/internal/chatapi"
	"duet/internal/config"
	"duet/internal/converse"
	"duet/internal/logging"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const (
	defaultMaxInputHeight = 8
	inputPlaceholder      = "Ask a question... (Enter to send, Alt+Enter for newline, Esc to exit)"
)

// Config holds what the chat needs from the caller.
type Config struct {
	App     *config.Config
	Logging *logging.Factory
	// Sender overrides the HTTP client built from App.Client.
	Sender converse.Sender
	// Scheduler overrides the timer used for the checker delay.
	Scheduler converse.Scheduler
}

// Model is the bubbletea model for the chat screen.
type Model struct {
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   ui.Styles

	transcript converse.Transcript
	controller *converse.Controller
	surface    *teaSurface

	inputEnabled   bool
	maxInputHeight int
	endpoint       string

	width  int
	height int
	ready  bool

	lastOutcome converse.Outcome

	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

// InitChat builds the chat model from configuration.
func InitChat(cfg Config) Model {
	app := cfg.App
	if app == nil {
		app = config.DefaultConfig()
	}
	factory := cfg.Logging
	if factory == nil {
		factory = logging.Nop()
	}

	styles := ui.NewStyles(ui.ThemeFor(app.UI.Theme))

	ta := textarea.New()
	ta.Placeholder = inputPlaceholder
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.SetHeight(1)
	ta.SetWidth(80)
	// Newlines are inserted by handleKeyMsg; Enter submits.
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sender := cfg.Sender
	if sender == nil {
		sender = chatapi.NewClient(app.Client.Endpoint,
			chatapi.WithTimeout(app.GetRequestTimeout()),
			chatapi.WithLogger(factory.Get(logging.CategoryClient)),
		)
	}
	scheduler := cfg.Scheduler
	if scheduler == nil {
		scheduler = &converse.TimerScheduler{}
	}

	surface := newTeaSurface()
	controller := converse.NewController(surface, sender,
		converse.WithScheduler(scheduler),
		converse.WithCheckerDelay(app.GetCheckerDelay()),
		converse.WithLogger(factory.Get(logging.CategoryClient)),
	)

	maxHeight := app.UI.MaxInputHeight
	if maxHeight < 1 {
		maxHeight = defaultMaxInputHeight
	}

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		textarea:       ta,
		viewport:       vp,
		spinner:        sp,
		styles:         styles,
		controller:     controller,
		surface:        surface,
		inputEnabled:   true,
		maxInputHeight: maxHeight,
		endpoint:       app.Client.Endpoint,
		ctx:            ctx,
		cancel:         cancel,
		logger:         factory.Get(logging.CategoryUI),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// RunInteractiveChat starts the interactive chat session
func RunInteractiveChat(cfg Config) error {
	model := InitChat(cfg)
	defer model.cancel()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	model.surface.attach(p.Send)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// shutdown aborts any in-flight request.
func (m Model) shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.logger.Debug("chat closed", zap.Int("messages", m.transcript.Len()))
}
