// ./main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/xkilldash9x/orderlens/cmd"
	"github.com/xkilldash9x/orderlens/internal/observability"
)

const panicLogFile = "panic.log"

// main is the entry point for the orderlens CLI.
func main() {
	defer handlePanic()

	// SIGINT and SIGTERM cancel the context; serve drains live browser sessions on the way out.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil && !errors.Is(err, context.Canceled) {
		stop()
		os.Exit(1)
	}
}

// handlePanic records an unrecovered panic to panicLogFile before exiting.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	msg := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := os.WriteFile(panicLogFile, []byte(msg), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write panic log: %v\n%s\n", err, msg)
	} else {
		fmt.Fprintf(os.Stderr, "orderlens crashed; details written to %s\n", panicLogFile)
	}
	os.Exit(2)
}
