// Command allocate recomputes the allocation of one expense and prints the
// resulting lines as JSON.
//
// Usage:
//
//	allocate <expenseId>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sdfghub/property-sub001/internal/allocation"
	"github.com/sdfghub/property-sub001/internal/config"
	"github.com/sdfghub/property-sub001/internal/storage/sqlstore"
	"github.com/sdfghub/property-sub001/pkg/logging"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns its exit code. The result goes to
// stdout; usage and errors go to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 || args[0] == "" {
		fmt.Fprintln(stderr, "usage: allocate <expenseId>")
		return 1
	}

	if err := allocate(ctx, args[0], stdout); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func allocate(ctx context.Context, expenseID string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.SetupWith(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	store, err := sqlstore.New(sqlstore.Options{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DSN(),
		MaxConns: cfg.DBMaxConns,
	})
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Debug("Storage initialized", "driver", cfg.DBDriver)

	res, err := allocation.NewAllocator(store, nil).Allocate(ctx, expenseID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
