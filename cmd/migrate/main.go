package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"shopcart/internal/config"
	"shopcart/internal/infra/db"
	"shopcart/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// usage: migrate [-steps n] up|down|version
func main() {
	steps := flag.Int("steps", 0, "number of migrations to apply (0 = all)")
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "up"
	}

	_ = godotenv.Load()

	cfg, err := config.LoadDatabase()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.GoEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	gormDB, err := db.Connect(cfg.DSN(), false)
	if err != nil {
		log.Fatal("connect failed", zap.Error(err))
	}

	m, err := db.NewMigrator(gormDB)
	if err != nil {
		log.Fatal("migrator init failed", zap.Error(err))
	}

	switch cmd {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
		v, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			log.Info("no migration applied")
			return
		}
		if verr != nil {
			log.Fatal("version failed", zap.Error(verr))
		}
		log.Info("current version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return
	default:
		log.Fatal("unknown command", zap.String("command", cmd))
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal("migration failed", zap.String("command", cmd), zap.Error(err))
	}
	log.Info("migration done", zap.String("command", cmd))
}
