package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rpupo63/our-little-infinity/api"
	"github.com/rpupo63/our-little-infinity/config"
	"github.com/rpupo63/our-little-infinity/database"
	"github.com/rpupo63/our-little-infinity/journal"
	"github.com/rpupo63/our-little-infinity/models"
	"github.com/rpupo63/our-little-infinity/storage"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		stdlog.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Error loading config: %v", err)
	}
	setupLogging(cfg)
	log.Info().Str("env", cfg.Env).Msg("Initializing app...")

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}

	// If generating models, run generation and exit
	if cfg.GenerateModels {
		log.Info().Msg("Generating models and query helpers...")
		if err := models.GenerateModels(db); err != nil {
			log.Fatal().Err(err).Msg("Error generating models")
		}
		return
	}

	// If generating column mismatch report, run report and exit
	if cfg.GenerateColumnReport {
		log.Info().Msg("Generating column mismatch report...")
		if _, err := models.GenerateColumnMismatchReport(db); err != nil {
			log.Fatal().Err(err).Msg("Error generating column report")
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	currentDB := database.New(db)
	if cfg.MigrateOnStart {
		log.Info().Msg("Applying migrations...")
		if err := currentDB.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error applying migrations")
		}
	}

	bucket, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing storage")
	}

	repo := journal.NewRepository(currentDB, bucket)

	server, err := api.NewServer(cfg, currentDB, repo)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		errChannel := make(chan error, 1)
		server.Start(errChannel)
		if err := <-errChannel; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		server.ShutdownGracefully(cfg.ShutdownTimeoutDuration())
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Server stopped")
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	log.Info().Str("host", cfg.DBHost).Msg("Connecting to Supabase database...")

	newLogger := logger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
	})
	if err != nil {
		return nil, err
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, err
	}
	return db, nil
}
