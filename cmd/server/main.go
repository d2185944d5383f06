package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Ledgerline/internal/ai"
	"github.com/hray3182/Ledgerline/internal/api"
	"github.com/hray3182/Ledgerline/internal/clock"
	"github.com/hray3182/Ledgerline/internal/config"
	"github.com/hray3182/Ledgerline/internal/database"
	"github.com/hray3182/Ledgerline/internal/repository"
	"github.com/hray3182/Ledgerline/internal/scheduler"
	"github.com/hray3182/Ledgerline/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DatabaseURI == "" {
		log.Fatal("DATABASE_URI is required")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	// Run migrations
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	clk := clock.New()
	runner := repository.NewTxRunner(db)
	sched := scheduler.New(runner, clk)
	svc := service.NewRecurringService(runner, sched, clk)

	// Initialize AI client (optional)
	if cfg.AIAPIKey != "" {
		svc.WithDrafter(ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel))
		log.Printf("AI client initialized (model: %s)", cfg.AIModel)
	} else {
		log.Println("AI client not configured, natural language drafting disabled")
	}

	// Due alerts over Telegram (optional)
	if cfg.AlertsEnabled() {
		tgAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			log.Fatalf("Failed to create Telegram API: %v", err)
		}
		log.Printf("Authorized on account %s", tgAPI.Self.UserName)

		alerter := scheduler.NewAlerter(tgAPI, sched, cfg.TelegramChatID, cfg.AlertInterval)
		svc.WithNotifier(alerter)
		go alerter.Start(ctx)
	} else {
		log.Println("Telegram alerts not configured")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(api.NewRecurringController(svc)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		cancel()

		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Server starting on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}
}
