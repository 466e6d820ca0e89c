package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"duet/internal/chatapi"
	"duet/internal/converse"
	"duet/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errAskFailed signals a failed exchange after its message has been printed.
var errAskFailed = errors.New("chat request failed")

var echoQuestion bool

// askCmd sends one question and prints both replies
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question and print the answer and the review",
	Long: `Sends a single question to the chat endpoint and prints the answerer's
reply, then the checker's review once it arrives.

Example:
  duet ask "什么是反向传播？"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&echoQuestion, "echo", false, "Print the question before the replies")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	clientLog := logs.Get(logging.CategoryClient)
	sender := chatapi.NewClient(appCfg.Client.Endpoint,
		chatapi.WithTimeout(appCfg.GetRequestTimeout()),
		chatapi.WithLogger(clientLog),
	)
	return ask(ctx, cmd, sender, strings.Join(args, " "))
}

// ask runs one submission against sender and waits for the deferred checker.
func ask(ctx context.Context, cmd *cobra.Command, sender converse.Sender, question string) error {
	surface := converse.NewConsoleSurface(cmd.OutOrStdout(), echoQuestion)
	scheduler := &converse.TimerScheduler{}
	controller := converse.NewController(surface, sender,
		converse.WithScheduler(scheduler),
		converse.WithCheckerDelay(appCfg.GetCheckerDelay()),
		converse.WithLogger(logs.Get(logging.CategoryClient)),
	)

	outcome := controller.Submit(ctx, question)
	scheduler.Wait()

	logger.Debug("ask finished", zap.Stringer("outcome", outcome))
	switch outcome {
	case converse.OutcomeSkipped:
		return errors.New("question is empty")
	case converse.OutcomeFailed:
		return errAskFailed
	}
	return nil
}
