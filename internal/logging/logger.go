// Package logging provides config-driven categorized logging for duet.
// Each category is a named child of one zap root logger. The interactive TUI
// owns the terminal, so it only logs (to a file) when debug_mode is set.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"duet/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup, config resolution
	CategoryClient    Category = "client"    // Chat controller and HTTP client
	CategoryUI        Category = "ui"        // Terminal surface
	CategoryServer    Category = "server"    // HTTP API
	CategoryTutor     Category = "tutor"     // Answerer/checker pipeline
	CategoryLLM       Category = "llm"       // Provider calls
	CategoryKnowledge Category = "knowledge" // Knowledge base load/watch
)

// DefaultInteractiveLogFile is used when the TUI runs in debug mode without
// an explicit logging.file.
var DefaultInteractiveLogFile = filepath.Join(".duet", "logs", "duet.log")

// Factory hands out category loggers backed by a single zap root.
type Factory struct {
	root *zap.Logger
	cfg  config.LoggingConfig

	mu      sync.Mutex
	loggers map[Category]*zap.Logger
}

// Nop returns a factory whose loggers discard everything.
func Nop() *Factory {
	return &Factory{root: zap.NewNop(), loggers: make(map[Category]*zap.Logger)}
}

// FromLogger wraps an existing zap logger. Useful in tests with zaptest.
func FromLogger(l *zap.Logger, cfg config.LoggingConfig) *Factory {
	return &Factory{root: l, cfg: cfg, loggers: make(map[Category]*zap.Logger)}
}

// New builds the root logger from cfg. With interactive set, logging is off
// unless cfg.DebugMode is true, and output never goes to the terminal.
func New(cfg config.LoggingConfig, interactive bool) (*Factory, error) {
	if interactive && !cfg.DebugMode {
		return Nop(), nil
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	var zcfg zap.Config
	if strings.EqualFold(cfg.Format, "json") {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.Development = false
		zcfg.DisableStacktrace = true
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Sampling = nil

	out := cfg.File
	if out == "" && interactive {
		out = DefaultInteractiveLogFile
	}
	if out == "" {
		out = "stderr"
	} else if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	zcfg.OutputPaths = []string{out}
	zcfg.ErrorOutputPaths = []string{out}

	root, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return FromLogger(root, cfg), nil
}

// Get returns (or creates) the logger for a category. Disabled categories get
// a no-op logger.
func (f *Factory) Get(category Category) *zap.Logger {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loggers == nil {
		f.loggers = make(map[Category]*zap.Logger)
	}
	if l, ok := f.loggers[category]; ok {
		return l
	}

	l := zap.NewNop()
	if f.cfg.IsCategoryEnabled(string(category)) {
		l = f.root.Named(string(category))
	}
	f.loggers[category] = l
	return l
}

// Sync flushes buffered entries. Errors from syncing stderr are ignored.
func (f *Factory) Sync() {
	_ = f.root.Sync()
}

// Timer measures an operation and logs its duration on Stop.
type Timer struct {
	logger    *zap.Logger
	operation string
	start     time.Time
}

// StartTimer begins timing an operation.
func StartTimer(logger *zap.Logger, operation string) *Timer {
	return &Timer{logger: logger, operation: operation, start: time.Now()}
}

// Stop logs the elapsed time at debug level and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	t.logger.Debug("operation finished", zap.String("operation", t.operation), zap.Duration("elapsed", elapsed))
	return elapsed
}

// StopWithThreshold logs at warn level when the operation was slower than
// threshold, otherwise at debug level.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		t.logger.Warn("slow operation",
			zap.String("operation", t.operation),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", threshold))
		return elapsed
	}
	t.logger.Debug("operation finished", zap.String("operation", t.operation), zap.Duration("elapsed", elapsed))
	return elapsed
}
