package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/hackgods/clinic-journey-scheduling/internal/logging"
	"github.com/hackgods/clinic-journey-scheduling/migrations"
)

// Usage: migrate [up|down|force <version>]
func main() {
	_ = godotenv.Load()
	logger := logging.New(os.Getenv("LOG_LEVEL")).With("service", "migrate")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		fatal(logger, "POSTGRES_DSN is required", nil)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		fatal(logger, "open db", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		fatal(logger, "ping db", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		fatal(logger, "db driver", err)
	}
	srcDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		fatal(logger, "source driver", err)
	}
	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		fatal(logger, "create migrator", err)
	}
	defer func() { _, _ = m.Close() }()

	cmd := "up"
	if len(os.Args) >= 2 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "force":
		if len(os.Args) < 3 {
			fatal(logger, "force needs a version", nil)
		}
		version, convErr := strconv.Atoi(os.Args[2])
		if convErr != nil {
			fatal(logger, "invalid version", convErr)
		}
		err = m.Force(version)
	default:
		fatal(logger, fmt.Sprintf("unknown command %q", cmd), nil)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fatal(logger, "migrate "+cmd, err)
	}

	version, dirty, _ := m.Version()
	logger.Info("migrations complete", "command", cmd, "version", version, "dirty", dirty)
}

func fatal(logger *logging.Logger, msg string, err error) {
	if err != nil {
		logger.Error(msg, "error", err.Error())
	} else {
		logger.Error(msg)
	}
	os.Exit(1)
}
