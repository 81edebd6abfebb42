package main

import (
	"os"
	"strings"

	"github.com/nimasrn/classroom-points/internal/config"
	"github.com/nimasrn/classroom-points/pkg/logger"
	"github.com/nimasrn/classroom-points/pkg/pg"
)

// main.go [up|status] --env=.env --dir=./migrations
func main() {
	err := config.Load(getEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	pgConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	dir := getMigrationPath()
	switch getCommand() {
	case "status":
		err = pg.MigrationStatus(pgConf, dir)
	default:
		err = pg.Migrate(pgConf, dir)
	}
	if err != nil {
		logger.Error("migration: error running migrations", "error", err)
		os.Exit(1)
	}
}

func getCommand() string {
	for _, v := range os.Args[1:] {
		if !strings.HasPrefix(v, "--") {
			return v
		}
	}
	return "up"
}

func getEnvPath() string {
	if p := flagValue("--env="); p != "" {
		return p
	}
	if _, err := os.Stat(".env"); err != nil {
		return ""
	}
	return ".env"
}

func getMigrationPath() string {
	if p := flagValue("--dir="); p != "" {
		return p
	}
	return "./migrations"
}

func flagValue(prefix string) string {
	for _, v := range os.Args {
		if strings.HasPrefix(v, prefix) {
			p := strings.TrimPrefix(v, prefix)
			if _, err := os.Stat(p); err != nil {
				logger.Error("failed to open the passed path, got error" + err.Error())
				return ""
			}
			return p
		}
	}
	return ""
}
