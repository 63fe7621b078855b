// Command migrate applies or rolls back the embedded schema migrations.
//
//	migrate up
//	migrate down [n]
//	migrate version
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/noah-isme/backend-lista/internal/db"
	"github.com/noah-isme/backend-lista/internal/obs"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}
	logger := obs.NewLogger("console", "info")

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "up":
		if err := db.Migrate(dbURL); err != nil {
			logger.Fatal().Err(err).Msg("migrate up")
		}
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			n, err := strconv.Atoi(os.Args[2])
			if err != nil || n <= 0 {
				logger.Fatal().Str("steps", os.Args[2]).Msg("steps must be a positive integer")
			}
			steps = n
		}
		if err := db.MigrateSteps(dbURL, -steps); err != nil {
			logger.Fatal().Err(err).Msg("migrate down")
		}
	case "version":
	default:
		logger.Fatal().Str("command", cmd).Msg("unknown command; use up, down or version")
	}

	version, dirty, err := db.MigrationVersion(dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("read version")
	}
	logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema version")
}
