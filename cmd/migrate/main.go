package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"bookstore-fulfillment/internal/config"
	"bookstore-fulfillment/migrations"
	"bookstore-fulfillment/pkg/logger"
	"bookstore-fulfillment/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status|redo|reset|version|list")
	version := flag.String("version", "", "target version for -cmd=version")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment")
	}
	logger.Init(os.Getenv("APP_ENV"))

	// list không cần DB
	if *cmd == "list" {
		versions, err := migrate.Versions(migrations.FS, ".")
		if err != nil {
			logger.Fatal("failed to read migrations", err)
		}
		for _, v := range versions {
			fmt.Println(v)
		}
		return
	}

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		logger.Fatal("failed to load database config", err)
	}

	db, err := migrate.Open(dbConfig.DSN())
	if err != nil {
		logger.Fatal("failed to open database", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("database not reachable", err)
	}

	runner, err := migrate.NewRunner(db, migrations.FS, ".")
	if err != nil {
		logger.Fatal("failed to init migrator", err)
	}

	logger.Info("running migrations", map[string]interface{}{
		"cmd":  *cmd,
		"host": dbConfig.Host,
		"db":   dbConfig.DBName,
	})

	switch *cmd {
	case "version":
		if *version == "" {
			fmt.Fprintln(os.Stderr, "missing -version for version command")
			os.Exit(1)
		}
		err = runner.MigrateTo(ctx, *version)
	case "up", "down", "status", "redo", "reset":
		err = runner.Run(ctx, *cmd)
	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
	if err != nil {
		logger.Fatal("migration failed", err)
	}
	logger.Info("migrations done", map[string]interface{}{"cmd": *cmd})
}
