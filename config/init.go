package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/mailforge/mailsync/internal/logger"
	"github.com/mailforge/mailsync/internal/tracing"
)

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:      &AppConfig{},
		Logger:         &logger.Config{},
		Tracing:        &tracing.JaegerConfig{},
		DatabaseConfig: &DatabaseConfig{},
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := env.Parse(config.AppConfig); err != nil {
		return nil, err
	}
	if err := env.Parse(config.Logger); err != nil {
		return nil, err
	}
	if err := env.Parse(config.Tracing); err != nil {
		return nil, err
	}
	if err := env.Parse(config.DatabaseConfig); err != nil {
		return nil, err
	}

	return config, nil
}
