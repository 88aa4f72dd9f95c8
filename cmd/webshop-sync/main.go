// Command webshop-sync pushes the store's catalogue and customers to the
// webshop and serves the sync trigger endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"webshopsync/internal/config"
)

const usage = `usage: webshop-sync <command> [flags]

commands:
  run             push everything changed since the last completed run
  serve           serve /healthz, /readyz, /metrics and POST /internal/jobs/sync
  purge           delete test records (--kind <kind> or --all)
  delete          delete one record (--kind <kind> --id <id>)
  verify-product  compare a local product with the webshop's copy (--id <id>)
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "webshop-sync: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stderr, usage)
		if len(args) == 0 {
			return errUsage
		}
		return nil
	}

	cmd, rest := args[0], args[1:]
	var exec func(ctx context.Context, a *app) error
	switch cmd {
	case "run":
		f, err := parseRunFlags(rest)
		if err != nil {
			return err
		}
		exec = func(ctx context.Context, a *app) error { return a.runSync(ctx, f, stdout) }
	case "serve":
		if err := parseNoFlags(cmd, rest); err != nil {
			return err
		}
		exec = func(ctx context.Context, a *app) error { return a.serve(ctx) }
	case "purge":
		f, err := parsePurgeFlags(rest)
		if err != nil {
			return err
		}
		exec = func(ctx context.Context, a *app) error { return a.purge(ctx, f, stdout) }
	case "delete":
		f, err := parseDeleteFlags(rest)
		if err != nil {
			return err
		}
		exec = func(ctx context.Context, a *app) error { return a.delete(ctx, f, stdout) }
	case "verify-product":
		f, err := parseVerifyFlags(rest)
		if err != nil {
			return err
		}
		exec = func(ctx context.Context, a *app) error { return a.verifyProduct(ctx, f, stdout) }
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return errUsage
	}

	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := newApp(ctx, cfg, newLogger(cfg.LogLevel, stderr), needsDB(cmd))
	if err != nil {
		return err
	}
	defer a.close()

	return exec(ctx, a)
}

func needsDB(cmd string) bool {
	switch cmd {
	case "purge", "delete":
		return false
	}
	return true
}

func newLogger(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "webshop-sync").Logger()
}
