package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"budgetmint/internal/app"
	"budgetmint/internal/domain/itemsync"
	"budgetmint/internal/infrastructure/postgres"
	"budgetmint/internal/interfaces/scheduler"
	"budgetmint/internal/shared/config"
	"budgetmint/internal/shared/logging"
)

const usage = `BudgetMint Admin CLI - Management commands for the BudgetMint API

Usage:
  admin <command> [options]

Commands:
  sync               Sync transactions for one or more linked items
  refresh-balances   Refresh account balances for one or more linked items
  sync-all           Sync transactions and balances for every linked item
  migrate            Apply pending Postgres schema migrations

Examples:
  # Sync a single item
  admin sync --item-id=item-abc

  # Refresh balances for several items
  admin refresh-balances --item-id=item-abc,item-def

  # Sync every item with 8 workers
  admin sync-all --workers=8 --timeout=1h

  # Apply migrations
  admin migrate
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	var err error
	switch command {
	case "sync":
		err = runItems("sync", os.Args[2:], syncItem)
	case "refresh-balances":
		err = runItems("refresh-balances", os.Args[2:], refreshItem)
	case "sync-all":
		err = runSyncAll(os.Args[2:])
	case "migrate":
		err = runMigrate()
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

type itemAction func(ctx context.Context, engines *app.Engines, retry itemsync.RetryPolicy, userID, itemID string) error

func runItems(name string, args []string, action itemAction) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)

	itemIDStr := fs.String("item-id", "", "Item ID(s) to process (comma-separated for multiple)")
	timeout := fs.Duration("timeout", 10*time.Minute, "Timeout for the operation (e.g., 5m, 1h)")

	fs.Usage = func() {
		fmt.Printf("Usage: admin %s [options]\n", name)
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	itemIDs := splitIDs(*itemIDStr)
	if len(itemIDs) == 0 {
		fs.Usage()
		return fmt.Errorf("must specify --item-id")
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	engines, err := app.NewEngines(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer engines.Close()

	retry := app.RetryPolicy(cfg)
	failed := 0
	for _, itemID := range itemIDs {
		it, err := engines.Items.Get(ctx, itemID)
		if err != nil {
			logger.WithError(err).WithField("item_id", itemID).Error("Failed to load item")
			failed++
			continue
		}
		if err := action(ctx, engines, retry, it.UserID, it.ItemID); err != nil {
			logger.WithError(err).WithField("item_id", itemID).Error(name + " failed")
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d item(s) failed", failed, len(itemIDs))
	}
	return nil
}

func syncItem(ctx context.Context, engines *app.Engines, retry itemsync.RetryPolicy, userID, itemID string) error {
	var result *itemsync.SyncResult
	err := itemsync.Retry(ctx, retry, func(ctx context.Context) error {
		var err error
		result, err = engines.Syncer.SyncTransactions(ctx, userID, itemID)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Item %s ===\n", itemID)
	fmt.Printf("  Added:     %d\n", result.Added)
	fmt.Printf("  Modified:  %d\n", result.Modified)
	fmt.Printf("  Removed:   %d\n", result.Removed)
	fmt.Printf("  Skipped:   %d\n", result.Skipped)
	return nil
}

func refreshItem(ctx context.Context, engines *app.Engines, retry itemsync.RetryPolicy, userID, itemID string) error {
	var updated int
	err := itemsync.Retry(ctx, retry, func(ctx context.Context) error {
		var err error
		updated, err = engines.Refresher.RefreshBalances(ctx, userID, itemID)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Item %s ===\n", itemID)
	fmt.Printf("  Accounts updated: %d\n", updated)
	return nil
}

func runSyncAll(args []string) error {
	fs := flag.NewFlagSet("sync-all", flag.ExitOnError)

	workers := fs.Int("workers", 4, "Number of concurrent workers")
	timeout := fs.Duration("timeout", 30*time.Minute, "Timeout for the operation (e.g., 5m, 1h)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	engines, err := app.NewEngines(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer engines.Close()

	// No push notifications from the CLI.
	runner := scheduler.NewItemSyncRunner(engines.Syncer, engines.Refresher, nil, engines.Items, app.RetryPolicy(cfg), logger)
	jobs, err := runner.Provider()(ctx)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		logger.Info("No items to process")
		return nil
	}

	pool := scheduler.NewWorkerPool(*workers, 0, *timeout, len(jobs), logger)
	pool.Start()

	startTime := time.Now()
	submitted := pool.SubmitBatch(jobs)
	pool.ShutdownWithTimeout(time.Until(deadline(ctx)))

	logger.WithFields(logrus.Fields{
		"items":    submitted,
		"duration": time.Since(startTime).String(),
	}).Info("Sync-all completed")
	return nil
}

func runMigrate() error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := postgres.Migrate(db)
	if err != nil {
		return err
	}
	if applied {
		logger.Info("Migrations applied")
	} else {
		logger.Info("Schema is up to date")
	}
	return nil
}

func deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(time.Minute)
}

func splitIDs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
