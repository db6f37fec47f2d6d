package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Aashish23092/legaldoc-guardian/cmd"
)

func main() {
	// Cancelled on Ctrl+C or SIGTERM so the server and OCR calls can stop cleanly
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
