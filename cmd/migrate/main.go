package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"clearance-backend/internal/shared/config"
	"clearance-backend/internal/shared/storage/db"
	"clearance-backend/internal/shared/telemetry"
)

type command string

const (
	commandUp      command = "up"
	commandDown    command = "down"
	commandVersion command = "version"
)

func parseCommand(args []string) (command, error) {
	fs := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	down := fs.Bool("down", false, "roll back the latest migration")
	version := fs.Bool("version", false, "print the applied schema version")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	switch {
	case *down && *version:
		return "", fmt.Errorf("--down and --version are mutually exclusive")
	case *down:
		return commandDown, nil
	case *version:
		return commandVersion, nil
	default:
		return commandUp, nil
	}
}

func main() {
	cfg := config.Load()
	telemetry.Configure(cfg.LogLevel, os.Stdout)

	cmd, err := parseCommand(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(2)
	}

	ctx := context.Background()
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	switch cmd {
	case commandDown:
		err = db.RollbackMigration(ctx, sqlDB)
	case commandVersion:
		var v int64
		if v, err = db.MigrationVersion(ctx, sqlDB); err == nil {
			fmt.Println(v)
		}
	default:
		err = db.RunMigrations(ctx, sqlDB)
	}
	if err != nil {
		telemetry.Error("migrate.failed", map[string]any{"command": string(cmd), "error": err.Error()})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"command": string(cmd)})
}
