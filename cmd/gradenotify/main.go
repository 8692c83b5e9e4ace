package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	gradecmd "github.com/telekom/gradenotify/pkg/cli/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := gradecmd.DefaultConfig()
	cfg.Context = ctx
	root := gradecmd.NewRootCommand(cfg)
	if err := root.Execute(); err != nil {
		cancel()
		os.Exit(1)
	}
}
