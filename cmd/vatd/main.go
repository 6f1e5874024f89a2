package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/prior-it/vatengine/bootstrap"
	"github.com/prior-it/vatengine/config"
)

var (
	runReconcile bool
	dryRun       bool
	noDatabase   bool
)

func init() {
	flag.Usage = helpMessage
	flag.BoolVar(&runReconcile, "reconcile", false, "Recompute and store the VAT decision of every customer, then exit")
	flag.BoolVar(&dryRun, "dry-run", false, "Compute decisions without storing them (only with -reconcile)")
	flag.BoolVar(&noDatabase, "nodb", false, "Serve the API without a customer database")
}

func helpMessage() {
	output := flag.CommandLine.Output()
	fmt.Fprintf(output, "Usage of %s:\n\n", os.Args[0])
	fmt.Fprintln(output, "Serves the VAT determination API, or reconciles the stored VAT decisions of all customers.")
	fmt.Fprintln(output, "Configuration is read from config.toml in the current working directory and the environment.")
	fmt.Fprintln(output, "\nFlags:")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatalf("Could not access the current working directory: %v\n", err)
	}
	cfg, err := config.Load(os.DirFS(cwd))
	if err != nil {
		log.Fatalf("Could not load the configuration: %v\n", err)
	}
	if dryRun {
		cfg.Reconcile.DryRun = true
	}

	if err := run(context.Background(), cfg); err != nil {
		slog.Error("vatd stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	bootstrap.CreateLogger(cfg, os.Stdout)
	if runReconcile {
		db, err := bootstrap.Database(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		report, err := bootstrap.Reconciler(cfg, db).Run(ctx)
		if err != nil {
			return err
		}
		if report.Failed > 0 {
			return fmt.Errorf("reconciliation %s failed for %d of %d customers", report.RunID, report.Failed, report.Processed)
		}
		return nil
	}

	if noDatabase {
		return bootstrap.Server(cfg, nil).Start(ctx, nil)
	}
	db, err := bootstrap.Database(ctx, cfg)
	if err != nil {
		return err
	}
	return bootstrap.Server(cfg, db).Start(ctx, nil)
}
