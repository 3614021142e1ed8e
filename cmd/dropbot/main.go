package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	corecmd "dropbot/core/cmd"
	coreconfig "dropbot/core/config"
	"dropbot/internal/bot"
)

func main() {
	// Optional .env for local runs; env vars always win over the YAML file.
	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env")
	}

	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        coreconfig.Load,
		Bootstrap: func(ctx context.Context, cfg *coreconfig.Config) (corecmd.App, error) {
			return bot.Bootstrap(ctx, cfg)
		},
	})
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
