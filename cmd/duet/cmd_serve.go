package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"duet/internal/knowledge"
	"duet/internal/llm"
	"duet/internal/logging"
	"duet/internal/server"
	"duet/internal/tutor"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	serveAddr     string
	serveStatic   string
	serveMaxPages int
)

// serveCmd runs the chat backend
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tutor backend (POST /api/chat)",
	Long: `Starts the HTTP backend the chat client talks to. Each question is
answered by the answerer agent and reviewed by the checker agent, both
grounded in the configured knowledge base.

Routes:
  POST /api/chat               {"message": "..."} -> {"question","answer","check"}
  GET  /api/history            processed turns of this run
  POST /api/knowledge/reload   {"max_pages": N}
  GET  /healthz`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&serveStatic, "static", "", "Directory served at / and /static")
	serveCmd.Flags().IntVar(&serveMaxPages, "pages", 0, "Knowledge base pages to load (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		appCfg.Server.Addr = serveAddr
	}
	if serveStatic != "" {
		appCfg.Server.StaticDir = serveStatic
	}
	if serveMaxPages > 0 {
		appCfg.Knowledge.MaxPages = serveMaxPages
	}
	if err := appCfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := llm.NewClient(ctx, appCfg.LLM, appCfg.GetLLMTimeout(), logs.Get(logging.CategoryLLM))
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	system := tutor.New(client, tutor.Config{
		KnowledgePath: appCfg.Knowledge.Path,
		MaxPages:      appCfg.Knowledge.MaxPages,
		ExcerptChars:  appCfg.Knowledge.ExcerptChars,
	}, logs.Get(logging.CategoryTutor))

	srv := server.NewServer(server.Config{
		Addr:            appCfg.Server.Addr,
		StaticDir:       appCfg.Server.StaticDir,
		ShutdownTimeout: appCfg.GetShutdownTimeout(),
	}, system, logs.Get(logging.CategoryServer))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if appCfg.Knowledge.Watch && appCfg.Knowledge.Path != "" {
		g.Go(func() error {
			return watchKnowledge(gctx, system)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// watchKnowledge reloads the tutor whenever the knowledge file changes. A
// watcher that cannot start is logged and does not stop the server.
func watchKnowledge(ctx context.Context, system *tutor.System) error {
	kl := logs.Get(logging.CategoryKnowledge)
	err := knowledge.Watch(ctx, appCfg.Knowledge.Path, knowledge.DefaultDebounce, kl, system.ReloadCurrent)
	if err != nil {
		kl.Warn("knowledge watcher disabled", zap.Error(err))
	}
	return nil
}
