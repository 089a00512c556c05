package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/agencyops-backend/pkg/config"
	"github.com/angelmondragon/agencyops-backend/pkg/db"
	"github.com/angelmondragon/agencyops-backend/pkg/logger"
	"github.com/angelmondragon/agencyops-backend/pkg/migrate"
)

const usage = `Usage: migrate [-cmd up|down|status|version|create|validate] [flags]

Manages the agencyops Postgres schema (services, clients, orders, projects,
subscriptions, activity_log) with goose. create and validate work offline;
every other command connects to AGENCYOPS_DB_DSN.

Examples:
  migrate -cmd status
  migrate -cmd version -version 20250301120500
  migrate -cmd create -name add_invoice_reference

Flags:
`

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	if err := run(ctx, logg, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			logg.Error(ctx, "migrate failed", err)
		}
		os.Exit(1)
	}
}

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	fs.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	fs.StringVar(&opts.name, "name", "", "migration name (for create)")
	fs.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	switch opts.cmd {
	case "up", "down", "status", "validate":
	case "create":
		if opts.name == "" {
			return opts, errors.New("missing -name for create")
		}
	case "version":
		if opts.version == "" {
			return opts, errors.New("missing -version for version command")
		}
	default:
		return opts, fmt.Errorf("unknown -cmd value: %s", opts.cmd)
	}
	return opts, nil
}

func run(ctx context.Context, logg *logger.Logger, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}

	// Offline commands.
	switch opts.cmd {
	case "create":
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		fmt.Fprintln(stdout, "created migration:", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return fmt.Errorf("migration validation failed: %w", err)
		}
		fmt.Fprintln(stdout, "migration validation passed")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
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

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}
	logg.Info(ctx, "migrate ready")

	if opts.cmd == "version" {
		if err := migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version); err != nil {
			return fmt.Errorf("goose version migrate failed: %w", err)
		}
		return nil
	}
	if err := migrate.Run(ctx, sqlDB, opts.dir, opts.cmd); err != nil {
		return fmt.Errorf("goose %s failed: %w", opts.cmd, err)
	}
	return nil
}
