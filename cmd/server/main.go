package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/marketpulse/trendchat/internal/api"
	"github.com/marketpulse/trendchat/internal/config"
	"github.com/marketpulse/trendchat/internal/core"
	"github.com/marketpulse/trendchat/internal/jobs"
	"github.com/marketpulse/trendchat/internal/logging"
	"github.com/marketpulse/trendchat/internal/store"
)

func main() {
	scrapeOnce := flag.Bool("scrape", false, "Run one trend scrape cycle and exit (does not need GEMINI_API_KEY)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// A store that cannot be reached leaves the service up in degraded mode:
	// chat endpoints answer 503 and the trend jobs are not scheduled.
	var dbStore store.Store
	if s, err := store.Connect(ctx, cfg); err != nil {
		logger.Error("failed to connect to store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	} else {
		logger.Info("connected to store", zap.String("backend", cfg.StoreBackend))
		dbStore = s
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := dbStore.Close(closeCtx); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
		}()
	}

	var scraper *jobs.Scraper
	if dbStore != nil {
		scraper = jobs.NewScraper(cfg.ScrapeURL, &http.Client{}, dbStore, logger.Named("scraper"))
	}

	if *scrapeOnce {
		code := runScrapeOnce(ctx, scraper, dbStore, logger)
		if dbStore != nil {
			dbStore.Close(ctx)
		}
		logger.Sync()
		os.Exit(code)
	}

	if err := cfg.RequireGemini(); err != nil {
		logger.Fatal("cannot start chat server", zap.Error(err))
	}

	llmService, err := core.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger.Named("llm"))
	if err != nil {
		logger.Fatal("failed to initialize LLM service", zap.Error(err))
	}
	defer llmService.Close()

	chatService := core.NewChatService(dbStore, llmService, logger.Named("chat"))

	scheduler := jobs.NewScheduler(logger.Named("scheduler"))
	if dbStore != nil {
		scheduler.Every("scrape_trends", cfg.ScrapeInterval, scraper)
		scheduler.Every("delete_old_trends", cfg.RetentionInterval, jobs.NewRetention(dbStore, cfg.RetentionMaxAge, logger.Named("retention")))
	} else {
		logger.Warn("trend jobs disabled: no store connection")
	}
	scheduler.Start()

	apiHandler := api.NewAPIHandler(chatService, logger.Named("api"))
	router := api.NewRouter(apiHandler, logger.Named("http"), cfg.CORSAllowedOrigins)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second, // model calls can take time
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", serverAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("could not listen", zap.String("addr", serverAddr), zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("background jobs did not stop in time", zap.Error(err))
	}

	logger.Info("server exiting gracefully")
}

func runScrapeOnce(ctx context.Context, scraper *jobs.Scraper, dbStore store.Store, logger *zap.Logger) int {
	if scraper == nil {
		logger.Error("cannot scrape without a store connection")
		return 1
	}
	if err := scraper.Run(ctx); err != nil {
		logger.Error("scrape failed", zap.Error(err))
		return 1
	}
	items, err := dbStore.ListTrends(ctx)
	if err != nil {
		logger.Error("failed to list trends", zap.Error(err))
		return 1
	}
	logger.Info("scrape complete", zap.Int("stored_trends", len(items)))
	return 0
}
