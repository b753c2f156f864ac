package main

// Create an admin account against the configured record store:
//   go run ./cmd/admin --email registrar@uni.edu --name Registrar
// The password is read from --password or ADMIN_PASSWORD.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"clearance-backend/internal/admins"
	"clearance-backend/internal/bootstrap"
	"clearance-backend/internal/shared/config"
	"clearance-backend/internal/shared/telemetry"
)

type options struct {
	email    string
	name     string
	password string
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg := config.Load()
	telemetry.Configure(cfg.LogLevel, os.Stderr)
	// Keep the CLI from seeding a second admin.
	cfg.BootstrapAdminEmail = ""

	ctx := context.Background()
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	admin, err := app.AdminsService.Create(ctx, admins.CreateInput{
		Name:     opts.name,
		Email:    opts.email,
		Password: opts.password,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created admin %s (%s)\n", admin.Email, admin.ID)
	return nil
}

func parseFlags(args []string) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("admin", pflag.ContinueOnError)
	flagSet.StringVar(&opts.email, "email", "", "admin email address")
	flagSet.StringVar(&opts.name, "name", "", "display name (defaults to the email local part)")
	flagSet.StringVar(&opts.password, "password", "", "password (defaults to ADMIN_PASSWORD)")

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", rest[0])
	}

	opts.email = strings.TrimSpace(opts.email)
	if opts.email == "" {
		return options{}, errors.New("--email is required")
	}
	if opts.password == "" {
		opts.password = os.Getenv("ADMIN_PASSWORD")
	}
	if opts.password == "" {
		return options{}, errors.New("--password or ADMIN_PASSWORD is required")
	}
	if strings.TrimSpace(opts.name) == "" {
		opts.name = strings.SplitN(opts.email, "@", 2)[0]
	}
	return opts, nil
}
