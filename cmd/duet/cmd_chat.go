package main

import (
	"duet/cmd/duet/chat"
)

// runInteractiveChat launches the terminal chat against the configured endpoint.
func runInteractiveChat() error {
	return chat.RunInteractiveChat(chat.Config{
		App:     appCfg,
		Logging: logs,
	})
}
