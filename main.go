package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"docvoice/cmd"
	"docvoice/internal/config"
	"docvoice/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration. API keys are checked by the commands that need
	// them, so a missing key must not prevent startup here.
	cfg := config.Load()

	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	log := logger.WithComponent("main")
	log.Info().Msg("Starting docvoice")

	cmd.Execute(cfg)

	log.Info().Msg("docvoice shutdown")
	os.Exit(0)
}
