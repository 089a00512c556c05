package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/agencyops-backend/internal/catalog"
	"github.com/angelmondragon/agencyops-backend/pkg/config"
	"github.com/angelmondragon/agencyops-backend/pkg/db"
	"github.com/angelmondragon/agencyops-backend/pkg/logger"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	if err := run(ctx, logg, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			logg.Error(ctx, "catalog seed failed", err)
		}
		os.Exit(1)
	}
}

// run keeps every exit path inside one function so deferred closes always run.
func run(ctx context.Context, logg *logger.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: seed [-file catalog.yaml] [-dry-run]")
		fmt.Fprintln(fs.Output(), "Upserts the agency service catalog by slug. Existing slugs are never renamed.")
		fs.PrintDefaults()
	}
	file := fs.String("file", "catalog.yaml", "service catalog YAML file")
	dryRun := fs.Bool("dry-run", false, "validate the file without writing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()

	seed, err := catalog.ParseSeed(f)
	if err != nil {
		return fmt.Errorf("invalid catalog %s: %w", *file, err)
	}
	if *dryRun {
		fmt.Fprintf(stdout, "catalog valid: %d services\n", len(seed.Services))
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"file": *file,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Warn(ctx, "error closing database: "+err.Error())
		}
	}()

	n, err := catalog.Seed(ctx, catalog.NewRepository(dbClient.DB()), seed)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "services", n), "catalog seeded")
	return nil
}
