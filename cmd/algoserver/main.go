// Command algoserver serves a directory of algorithm scripts over the
// algorithms HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wagnerlima/algolab/internal/algoserver"
	"github.com/wagnerlima/algolab/internal/executor"
	"github.com/wagnerlima/algolab/internal/logging"
)

// Config holds all server configuration.
type Config struct {
	Port        string
	CatalogDir  string
	EntryFunc   string
	ExecTimeout time.Duration
	Workers     int
	LogLevel    string
}

func loadConfig() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	catalog := os.Getenv("ALGOSERVER_CATALOG")
	if catalog == "" {
		catalog = "catalog"
	}
	level := os.Getenv("ALGOLAB_LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	timeout := executor.DefaultTimeout
	if v := os.Getenv("ALGOSERVER_EXEC_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			timeout = d
		}
	}
	workers := 4
	if v := os.Getenv("ALGOSERVER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workers = n
		}
	}

	return Config{
		Port:        port,
		CatalogDir:  catalog,
		EntryFunc:   os.Getenv("ALGOLAB_ENTRY_FUNC"),
		ExecTimeout: timeout,
		Workers:     workers,
		LogLevel:    level,
	}
}

func main() {
	_ = godotenv.Load()
	config := loadConfig()

	logger, err := logging.New(config.LogLevel)
	if err != nil {
		os.Stderr.WriteString("FATAL: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	catalog, err := algoserver.LoadCatalog(config.CatalogDir)
	if err != nil {
		logger.Fatal("load catalog", zap.String("dir", config.CatalogDir), zap.Error(err))
	}
	server := algoserver.NewServer(catalog, executor.Config{
		Timeout: config.ExecTimeout,
		Workers: config.Workers,
	}, config.EntryFunc, logger)

	addr := ":" + config.Port
	logger.Info("algorithm server starting",
		zap.String("addr", addr),
		zap.String("catalog", config.CatalogDir),
		zap.Int("algorithms", len(catalog.List())),
	)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("algorithm server stopped")
}
