// Command migrate applies the goose migrations in db/migrations.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"webshopsync/internal/config"
)

func main() {
	var (
		command = pflag.StringP("command", "c", "up", "Migration command: up, down, status, create")
		name    = pflag.StringP("name", "n", "", "Name for 'create' command")
	)
	pflag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "migrate").Logger()

	config.LoadEnvFiles()
	dir := migrationsDir()

	if *command == "create" {
		if *name == "" {
			log.Fatal().Msg("name is required for 'create' command")
		}
		if err := goose.Create(nil, dir, *name, "sql"); err != nil {
			log.Fatal().Err(err).Msg("failed to create migration")
		}
		fmt.Printf("Migration created: %s\n", *name)
		return
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, databaseDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal().Err(err).Msg("failed to set dialect")
	}

	switch *command {
	case "up":
		if err := goose.Up(db, dir); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		fmt.Println("Migrations applied successfully")
	case "down":
		if err := goose.Down(db, dir); err != nil {
			log.Fatal().Err(err).Msg("failed to roll back migration")
		}
		fmt.Println("Migration rolled back successfully")
	case "status":
		if err := goose.Status(db, dir); err != nil {
			log.Fatal().Err(err).Msg("failed to check migration status")
		}
	default:
		log.Fatal().Str("command", *command).Msg("unknown command, use: up, down, status, create")
	}
}
