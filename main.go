package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/opentracing/opentracing-go"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/mailforge/mailsync/config"
	"github.com/mailforge/mailsync/internal/database"
	"github.com/mailforge/mailsync/internal/logger"
	"github.com/mailforge/mailsync/internal/repository"
	"github.com/mailforge/mailsync/internal/tracing"
	"github.com/mailforge/mailsync/server"
	"github.com/mailforge/mailsync/services"
)

func main() {
	app := &cli.App{
		Name:  "mailsync",
		Usage: "incremental IMAP mailbox synchronization service",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "run database migrations",
				Action: func(c *cli.Context) error {
					_, db, err := setup()
					if err != nil {
						return err
					}
					if err := repository.MigrateDB(db); err != nil {
						return err
					}
					log.Println("Database migration completed successfully")
					return nil
				},
			},
			{
				Name:  "server",
				Usage: "start the API server and scheduled sync jobs",
				Action: func(c *cli.Context) error {
					cfg, db, err := setup()
					if err != nil {
						return err
					}

					log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
					log.Println("MailSync starting up...")

					srv, err := server.NewServer(cfg, db)
					if err != nil {
						return fmt.Errorf("server setup failed: %w", err)
					}
					if err := srv.Run(); err != nil {
						return fmt.Errorf("server startup failed: %w", err)
					}

					log.Println("Shutdown complete")
					return nil
				},
			},
			{
				Name:  "sync",
				Usage: "run one sync of a single mailbox and print the diagnostic report",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "mailbox",
						Usage:    "mailbox id to sync",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					cfg, db, err := setup()
					if err != nil {
						return err
					}
					return syncOnce(cfg, db, c.String("mailbox"))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup() (*config.Config, *gorm.DB, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("config initialization failed: %w", err)
	}

	db, err := database.InitMailsyncDatabase(&database.DatabaseConfig{
		DBName:          cfg.DatabaseConfig.DBName,
		Host:            cfg.DatabaseConfig.Host,
		Port:            cfg.DatabaseConfig.Port,
		User:            cfg.DatabaseConfig.User,
		Password:        cfg.DatabaseConfig.Password,
		MaxConn:         cfg.DatabaseConfig.MaxConn,
		MaxIdleConn:     cfg.DatabaseConfig.MaxIdleConn,
		ConnMaxLifetime: cfg.DatabaseConfig.ConnMaxLifetime,
		LogLevel:        cfg.DatabaseConfig.LogLevel,
		SSLMode:         cfg.DatabaseConfig.SSLMode,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("database initialization failed: %w", err)
	}

	return cfg, db, nil
}

func syncOnce(cfg *config.Config, db *gorm.DB, mailboxID string) error {
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		return fmt.Errorf("could not initialize jaeger tracer: %w", err)
	}
	defer closer.Close()
	opentracing.SetGlobalTracer(tracer)

	repos := repository.InitRepositories(db)
	svcs, err := services.InitServices(cfg, repos)
	if err != nil {
		return err
	}

	report, err := svcs.SyncService.SyncMailbox(context.Background(), mailboxID)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
