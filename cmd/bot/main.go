// cmd/bot/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutrition-bot/internal/bot"
	"nutrition-bot/internal/config"
	"nutrition-bot/internal/db"
	"nutrition-bot/internal/gpt"
	"nutrition-bot/internal/pending"
	"nutrition-bot/internal/report"
	"nutrition-bot/internal/server"
	"nutrition-bot/pkg/logger"
)

func main() {
	l := logger.New()
	l.Info("Starting Nutrition Bot...")

	cfg, err := config.Load()
	if err != nil {
		l.Fatal("Failed to load config", err)
	}

	// Missing required configuration is fatal at startup, not a deferred
	// per-request error.
	if cfg.Telegram.Token == "" {
		l.Fatal("Telegram token is not configured")
	}
	if cfg.Telegram.AuthorizedUserID == 0 {
		l.Fatal("Authorized user ID is not configured")
	}
	if cfg.GPT.APIKey == "" {
		l.Fatal("GPT API key is not configured")
	}

	location, err := time.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		l.Fatal("Invalid report timezone", err)
	}

	// Connect to the database with retry.
	var database *db.PostgresDB
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		database, err = db.NewPostgresDB(db.Config{
			Host:         cfg.DB.Host,
			Port:         cfg.DB.Port,
			User:         cfg.DB.User,
			Password:     cfg.DB.Password,
			DBName:       cfg.DB.DBName,
			SSLMode:      cfg.DB.SSLMode,
			MaxOpenConns: cfg.DB.MaxOpenConns,
			MaxIdleConns: cfg.DB.MaxIdleConns,
			ConnLifetime: cfg.DB.ConnLifetime,
		})
		if err == nil {
			break
		}
		l.Error("Failed to connect to database, retrying...", err)
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	if database == nil {
		l.Fatal("Failed to connect to database after multiple attempts", err)
	}
	defer database.Close()

	gptClient := gpt.NewClient(cfg.GPT.APIKey).WithModel(cfg.GPT.Model)
	pendingStore := pending.NewStore()

	telegramBot, err := bot.NewTelegramBot(
		cfg.Telegram.Token, cfg.Telegram.AuthorizedUserID,
		database, gptClient, pendingStore, location, l,
	)
	if err != nil {
		l.Fatal("Failed to create Telegram bot", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := telegramBot.Start(ctx); err != nil {
		l.Fatal("Failed to start Telegram bot", err)
	}
	l.Info("Telegram bot started successfully")

	scheduler, err := report.NewScheduler(
		database, cfg.Telegram.AuthorizedUserID,
		cfg.Report.Time, location, telegramBot.DeliverReport, l,
	)
	if err != nil {
		l.Fatal("Failed to create report scheduler", err)
	}
	go scheduler.Run(ctx)

	httpServer := server.NewServer(cfg.Server.Port, l)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("Failed to start HTTP server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("Shutting down bot...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		l.Error("Error during HTTP server shutdown", err)
	}

	if err := telegramBot.Stop(shutdownCtx); err != nil {
		l.Error("Error during bot shutdown", err)
	}

	l.Info("Bot stopped successfully")
}
