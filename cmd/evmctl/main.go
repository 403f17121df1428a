package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/phu-boop/ev-dealer-platform/config"
	"github.com/phu-boop/ev-dealer-platform/internal/logger"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "evmctl:", err)
		os.Exit(1)
	}

	// 2. Initialize Logger. Logs go to stderr; stdout is for tables.
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.IsDevelopment() {
		logConfig.IsDevelopment = true
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire clients
	a, err := newApp(ctx, cfg, appLogger, os.Stdout, os.Stdin)
	if err != nil {
		appLogger.Error("Could not start evmctl", zap.Error(err))
		fmt.Fprintln(os.Stderr, "evmctl:", err)
		os.Exit(1)
	}

	code := a.run(ctx, os.Args[1:])
	a.Close()
	appLogger.Sync()
	os.Exit(code)
}
