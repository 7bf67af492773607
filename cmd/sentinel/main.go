package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"EconSentinel/internal/config"
	"EconSentinel/internal/ingest"
	"EconSentinel/internal/insight"
	"EconSentinel/internal/notifier"
	"EconSentinel/internal/provider"
	"EconSentinel/internal/query"
	"EconSentinel/internal/scheduler"
	"EconSentinel/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] EconSentinel starting...")

	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] no .env file found, using environment as-is")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init providers
	fred := provider.NewFREDFetcher(cfg.Sources.FREDAPIKey, cfg.Proxy)
	bls := provider.NewBLSFetcher(cfg.Sources.BLSAPIKey, cfg.Proxy)
	fdic := provider.NewFDICFetcher(cfg.Proxy)
	treasury := provider.NewTreasuryFetcher(cfg.Proxy)

	// Init store
	st, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("[FATAL] init store: %v", err)
	}
	defer st.Close()

	// Init engine and read side
	engine := ingest.NewEngine(ingest.Sources{FRED: fred, BLS: bls, FDIC: fdic}, st)
	evaluator := insight.NewEvaluator(st)
	qs := query.NewService(st, evaluator, treasury, fred)

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler: backfill (or verify) before any refresh runs
	sched := scheduler.NewScheduler(ctx, engine, qs, tn)
	if err := sched.Bootstrap(); err != nil {
		log.Fatalf("[FATAL] bootstrap: %v", err)
	}
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)

	// Optional: refresh immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing refresh now")
		go sched.RunRefreshNow()
	}

	log.Println("[INFO] EconSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] EconSentinel stopped")
}
