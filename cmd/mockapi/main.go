package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/posauth/pkg/config"
	"github.com/BradenHooton/posauth/internal/mockapi"
	"github.com/BradenHooton/posauth/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("configuration loaded", slog.String("env", cfg.Env))

	srv := mockapi.NewServer(mockapi.Options{
		JWTSecret: os.Getenv("MOCKAPI_JWT_SECRET"),
	}, log)

	server := &http.Server{
		Addr:         ":" + port(),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting mock backend", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

func port() string {
	if p := os.Getenv("MOCKAPI_PORT"); p != "" {
		return p
	}
	return "8080"
}
