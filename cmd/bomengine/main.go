package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
	"github.com/6thd/wardah-process-costing-sub007/pkg/interfaces/cli/commands"
)

// Set at build time with -ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := commands.NewRootCommand(fmt.Sprintf("%s (built %s)", Version, BuildTime))
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, repositories.ErrSchemaNotReady) {
			fmt.Fprintln(os.Stderr, "The database has no schema yet, run 'bomengine migrate up'")
		}
		stop()
		os.Exit(1)
	}
}
