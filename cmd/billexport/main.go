// Command billexport writes the persisted bills of a period to an XLSX file.
//
// Usage:
//
//	billexport <periodId> <out.xlsx>
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sdfghub/property-sub001/internal/config"
	"github.com/sdfghub/property-sub001/internal/export"
	"github.com/sdfghub/property-sub001/internal/storage/sqlstore"
	"github.com/sdfghub/property-sub001/pkg/logging"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: billexport <periodId> <out.xlsx>")
		os.Exit(1)
	}

	if err := run(context.Background(), os.Args[1], os.Args[2]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, periodID, out string) error {
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

	period, err := store.GetPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	bills, err := store.ListBills(ctx, periodID)
	if err != nil {
		return err
	}

	data, err := export.BillWorkbook(period.Code, bills)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	slog.Info("Bills exported", "period", period.Code, "bills", len(bills), "file", out)
	return nil
}
