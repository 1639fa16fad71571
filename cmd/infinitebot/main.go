package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"infinitebot/internal/ai"
	"infinitebot/internal/bot"
	"infinitebot/internal/config"
	"infinitebot/internal/leveling"
	"infinitebot/internal/profanity"
	"infinitebot/internal/storage"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	filters := profanity.NewEngine(store, profanity.LoadDefaultVocabulary())
	ledger := leveling.NewLedger(store)

	responder, err := ai.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.TextModel)
	if err != nil {
		logger.Fatal("ai client init failed", zap.Error(err))
	}

	botSvc, err := bot.New(cfg, logger, store, filters, ledger, responder)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	botSvc.Close(ctx)
}
