package config

import (
	"github.com/mailforge/mailsync/internal/logger"
	"github.com/mailforge/mailsync/internal/tracing"
)

type AppConfig struct {
	APIPort          string `env:"PORT" envDefault:"11000"`
	APIKey           string `env:"API_KEY,required"`
	EncryptionSecret string `env:"CREDENTIAL_ENCRYPTION_SECRET,required"`
}

type DatabaseConfig struct {
	Host            string `env:"MAILSYNC_POSTGRES_HOST,required"`
	Port            string `env:"MAILSYNC_POSTGRES_PORT,required"`
	User            string `env:"MAILSYNC_POSTGRES_USER,required"`
	DBName          string `env:"MAILSYNC_POSTGRES_DB_NAME,required"`
	Password        string `env:"MAILSYNC_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"MAILSYNC_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"MAILSYNC_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"MAILSYNC_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"MAILSYNC_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"MAILSYNC_POSTGRES_SSL_MODE" envDefault:"disable"`
}

type Config struct {
	AppConfig      *AppConfig
	Logger         *logger.Config
	Tracing        *tracing.JaegerConfig
	DatabaseConfig *DatabaseConfig
}
