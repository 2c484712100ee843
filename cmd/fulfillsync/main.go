package main

import (
	"log"

	"github.com/ibeloyar/fulfillsync/internal/app"
	"github.com/ibeloyar/fulfillsync/internal/config"
	"github.com/ibeloyar/fulfillsync/pgk/logger"
)

func main() {
	cfg, err := config.Read()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.NewWithConfig(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	if err := cfg.Validate(); err != nil {
		lg.Fatalf("invalid configuration: %v", err)
	}

	if err := app.Run(cfg, lg); err != nil {
		lg.Fatal(err)
	}
}
