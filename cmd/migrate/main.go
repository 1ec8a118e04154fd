package main

import (
	"flag"
	"fmt"
	"path/filepath"

	"tailor-billing-api/internal/database"

	"github.com/sirupsen/logrus"
)

func main() {
	var (
		dbPath  = flag.String("db", "./data/tailor.db", "Database file path")
		action  = flag.String("action", "up", "Migration action: up, down, status")
		backup  = flag.Bool("backup", false, "Copy the database file before changing the schema")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	absDBPath, err := filepath.Abs(*dbPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to get absolute database path")
	}

	logger.WithFields(logrus.Fields{
		"db_path": absDBPath,
		"action":  *action,
	}).Info("Starting migration tool")

	manager := database.NewMigrationManager(absDBPath, logger).WithBackup(*backup)

	switch *action {
	case "up":
		if err := manager.RunMigrations(); err != nil {
			logger.WithError(err).Fatal("Migration up failed")
		}
	case "down":
		if err := manager.RollbackMigration(); err != nil {
			logger.WithError(err).Fatal("Migration down failed")
		}
	case "status":
		info, err := manager.GetMigrationStatus()
		if err != nil {
			logger.WithError(err).Fatal("Failed to get migration status")
		}
		fmt.Printf("Version: %d\nDirty:   %t\nApplied: %t\n", info.Version, info.Dirty, info.Applied)
	default:
		logger.WithField("action", *action).Fatal("Unknown action. Use: up, down, status")
	}
}
