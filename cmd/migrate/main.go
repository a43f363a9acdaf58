package main

import (
	"fmt"
	"log/slog"
	"os"

	"outreach.app/courier/core/config"
	"outreach.app/courier/core/db"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate <up|down|version|force N>")
		os.Exit(2)
	}

	cfg, err := config.Load(config.ServiceTypeMigrate)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	if err := db.Migrate(log, cfg.DB.DSN, os.Args[1], os.Args[2:]); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
}
