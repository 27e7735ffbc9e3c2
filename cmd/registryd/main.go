// Command registryd runs the fides identity registry service (C8).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sage-x-project/fides/internal/config"
	"github.com/sage-x-project/fides/internal/registrysvc"
	"github.com/sage-x-project/fides/internal/storage"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using existing environment", zap.Error(err))
	}

	var cfg config.ServiceConfig
	if err := config.LoadService(&cfg); err != nil {
		logger.Fatal("load configuration", zap.Error(err))
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelInit()

	db, err := storage.Open(initCtx, cfg.DatabaseURL, cfg.DBPoolMax)
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	defer db.Close()

	schema, err := os.ReadFile("internal/storage/schema.sql")
	if err == nil {
		if err := db.RunMigrations(initCtx, string(schema)); err != nil {
			logger.Warn("apply schema migration", zap.Error(err))
		}
	}

	handler := registrysvc.NewHandler(db, logger, nil)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler.Routes(cfg.CORSOrigin),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("registryd listening", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen and serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received, draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("registryd stopped")
}
