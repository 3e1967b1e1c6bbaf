package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	"jpkvat/cmd"
	"jpkvat/internal/config"
	"jpkvat/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLog := logger.WithComponent("main")
	appLog.Debug().Msg("Starting jpkvat")

	cmd.Execute(cfg)
}
