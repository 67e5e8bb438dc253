package main

import (
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"composer/internal/infra"
	"composer/migrations"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("migrate: open database failed")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("migrate: close database failed")
		}
	}()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatal().Err(err).Msg("migrate: set dialect failed")
	}

	switch command {
	case "up":
		err = goose.Up(db, ".")
	case "down":
		err = goose.Down(db, ".")
	case "status":
		err = goose.Status(db, ".")
	default:
		logger.Fatal().Str("command", command).Msg("migrate: unknown command, want up, down or status")
	}
	if err != nil {
		logger.Fatal().Err(err).Str("command", command).Msg("migrate: failed")
	}
	logger.Info().Str("command", command).Msg("migrate: done")
}
