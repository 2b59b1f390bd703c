package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hellofixo-service/internal/app"
	"hellofixo-service/internal/config"
	"hellofixo-service/internal/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] No .env file found, relying on system env vars")
	}
	cfg := config.Load()

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.NewServer(cfg, zlog).Run(ctx); err != nil {
		zlog.Error("server exited with error", zap.Error(err))
		_ = zlog.Sync()
		os.Exit(1)
	}
}
