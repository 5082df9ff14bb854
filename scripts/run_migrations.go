package main

import (
	"os"

	"github.com/safar/store-dashboard/internal/config"
	"github.com/safar/store-dashboard/internal/database"
	"github.com/safar/store-dashboard/internal/logger"
	"go.uber.org/zap"
)

func main() {
	logg := logger.New(config.LogConfig{Level: os.Getenv("LOG_LEVEL")}, false)
	defer logg.Sync()

	if len(os.Args) < 2 {
		logg.Fatal("usage: go run scripts/run_migrations.go [up|down]")
	}

	direction := os.Args[1]
	if direction != "up" && direction != "down" {
		logg.Fatal("direction must be 'up' or 'down'", zap.String("direction", direction))
	}

	dbCfg := config.LoadDatabase()
	if dbCfg.URL == config.MemoryDatabaseURL {
		logg.Fatal("the in-memory store has no schema to migrate")
	}

	db, err := database.NewConnection(&dbCfg)
	if err != nil {
		logg.Fatal("connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db, "migrations", direction, logg); err != nil {
		logg.Fatal("run migrations", zap.Error(err))
	}
}
