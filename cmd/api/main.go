// Package main starts the MediHort AI platform API
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medihort/medihort-ai/internal/infrastructure/container"
	"go.uber.org/fx"
)

func main() {
	flag.StringVar(&container.ConfigPath, "config", "", "path to config file")
	flag.Parse()

	app := fx.New(
		fx.NopLogger,
		container.APIModule,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start platform API: %v\n", err)
		os.Exit(1)
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop platform API gracefully: %v\n", err)
		os.Exit(1)
	}
}
