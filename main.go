// @title CogniPath API
// @version 1.0
// @description Backend for the CogniPath personalized learning platform:
// @description AI-generated learning paths, lesson content and a tutoring chat.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"

	"cognipath_backend/internal/app"
	"cognipath_backend/internal/config"
	"cognipath_backend/pkg/configwatcher"
	"cognipath_backend/pkg/logger"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run database migrations and exit")
	migrate := flag.Bool("migrate", false, "force database migrations on startup")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *migrateOnly {
		log.Println("Database migration completed, exiting")
		return
	}

	go configwatcher.WatchConfig("configs/config.yaml", func(updated *config.Config) {
		logger.Log.Info("configuration reloaded")
	})

	application.Run()
}
