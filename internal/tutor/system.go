// Package tutor runs the two-agent answering pipeline: an answerer replies to
// the student's question and a checker reviews that reply, both grounded in
// the course knowledge base.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"duet/internal/knowledge"
	"duet/internal/llm"

	"go.uber.org/zap"
)

var (
	// ErrEmptyQuestion is returned by Ask for blank input.
	ErrEmptyQuestion = errors.New("message cannot be empty")
	// ErrInvalidPages is returned by Reload for a non-positive page count.
	ErrInvalidPages = errors.New("max_pages must be positive")
)

// Turn is one processed question with both agents' replies.
type Turn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Check    string    `json:"check"`
	At       time.Time `json:"at"`
}

// Agent is a named LLM persona with a fixed system prompt.
type Agent struct {
	Name         string
	systemPrompt string
	client       llm.Client
}

// Reply completes userPrompt under the agent's system prompt.
func (a *Agent) Reply(ctx context.Context, userPrompt string) (string, error) {
	out, err := a.client.CompleteWithSystem(ctx, a.systemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", a.Name, err)
	}
	return out, nil
}

// SystemPrompt returns the prompt the agent was built with.
func (a *Agent) SystemPrompt() string { return a.systemPrompt }

// Config controls knowledge loading.
type Config struct {
	KnowledgePath string
	MaxPages      int
	ExcerptChars  int
}

// System owns the agents, the knowledge base and the session history.
type System struct {
	client llm.Client
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	base     *knowledge.Base
	answerer *Agent
	checker  *Agent
	history  []Turn
}

// New builds a System and loads the knowledge base. A knowledge base that
// cannot be loaded is logged and the agents run without reference material.
func New(client llm.Client, cfg Config, logger *zap.Logger) *System {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ExcerptChars <= 0 {
		cfg.ExcerptChars = 8000
	}
	s := &System{client: client, cfg: cfg, logger: logger, now: time.Now}

	var base *knowledge.Base
	if cfg.KnowledgePath != "" {
		b, err := knowledge.Load(cfg.KnowledgePath, cfg.MaxPages)
		if err != nil {
			logger.Warn("running without knowledge base", zap.Error(err))
		} else {
			base = b
			logger.Info("knowledge base loaded",
				zap.String("path", cfg.KnowledgePath),
				zap.Int("pages", b.Pages()),
				zap.Int("total_pages", b.TotalPages()),
				zap.Int("chars", b.Len()))
		}
	}
	s.install(base, cfg.MaxPages)
	return s
}

// install swaps in a knowledge base and rebuilds both agents from it.
func (s *System) install(base *knowledge.Base, maxPages int) {
	excerpt := base.Excerpt(s.cfg.ExcerptChars)

	answerer := &Agent{
		Name:         AnswererName,
		systemPrompt: buildSystemPrompt(answererSystemPrompt, answererKnowledgeHeader, excerpt),
		client:       s.client,
	}
	checker := &Agent{
		Name:         CheckerName,
		systemPrompt: buildSystemPrompt(checkerSystemPrompt, checkerKnowledgeHeader, excerpt),
		client:       s.client,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = base
	s.cfg.MaxPages = maxPages
	s.answerer = answerer
	s.checker = checker
}

// Ask runs the answerer, then the checker over its answer, and records the
// turn. Any agent failure fails the whole turn.
func (s *System) Ask(ctx context.Context, question string) (Turn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Turn{}, ErrEmptyQuestion
	}

	s.mu.RLock()
	answerer, checker := s.answerer, s.checker
	s.mu.RUnlock()

	start := s.now()
	answer, err := answerer.Reply(ctx, question)
	if err != nil {
		return Turn{}, err
	}
	check, err := checker.Reply(ctx, reviewPrompt(question, answer))
	if err != nil {
		return Turn{}, err
	}

	turn := Turn{Question: question, Answer: answer, Check: check, At: s.now()}
	s.mu.Lock()
	s.history = append(s.history, turn)
	s.mu.Unlock()

	s.logger.Info("question answered",
		zap.Int("question_chars", len(question)),
		zap.Duration("elapsed", turn.At.Sub(start)))
	return turn, nil
}

// History returns a copy of the processed turns, oldest first.
func (s *System) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Reload reloads the first maxPages pages of the knowledge base and rebuilds
// the agents. On failure the previous knowledge base stays in place.
func (s *System) Reload(maxPages int) error {
	if maxPages <= 0 {
		return ErrInvalidPages
	}
	return s.reload(maxPages)
}

// ReloadCurrent reloads with the current page count. It backs the file
// watcher.
func (s *System) ReloadCurrent() {
	s.mu.RLock()
	pages := s.cfg.MaxPages
	s.mu.RUnlock()
	_ = s.reload(pages)
}

func (s *System) reload(maxPages int) error {
	base, err := knowledge.Load(s.cfg.KnowledgePath, maxPages)
	if err != nil {
		s.logger.Warn("knowledge reload failed", zap.Error(err))
		return err
	}
	s.install(base, maxPages)
	s.logger.Info("knowledge base reloaded", zap.Int("pages", base.Pages()), zap.Int("chars", base.Len()))
	return nil
}

// Stats describes the loaded knowledge base.
type Stats struct {
	Loaded     bool `json:"loaded"`
	Pages      int  `json:"pages"`
	TotalPages int  `json:"total_pages"`
	Chars      int  `json:"chars"`
	Turns      int  `json:"turns"`
}

// Stats reports the knowledge base and history sizes.
func (s *System) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Loaded:     s.base != nil,
		Pages:      s.base.Pages(),
		TotalPages: s.base.TotalPages(),
		Chars:      s.base.Len(),
		Turns:      len(s.history),
	}
}

// Answerer returns the current answerer agent.
func (s *System) Answerer() *Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.answerer
}

// Checker returns the current checker agent.
func (s *System) Checker() *Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checker
}
