package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/deusflow/dealwatch/internal/app"
	"github.com/deusflow/dealwatch/internal/config"
	"github.com/deusflow/dealwatch/internal/httpapi"
	"github.com/deusflow/dealwatch/internal/logger"
	"github.com/deusflow/dealwatch/internal/metrics"
)

func main() {
	serve := flag.Bool("serve", false, "serve the HTTP API (default when ENABLE_HTTP_MONITORING=true)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.Build(ctx, cfg, logger.Logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	if *serve || cfg.EnableHTTPMonitoring {
		server := httpapi.New(svc, metrics.Global, logger.Component("http"))
		if err := server.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	view, err := svc.Dashboard(ctx)
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
	if view.NoData {
		logger.Warn("no data available")
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(view); err != nil {
		logger.Error("encode view", "error", err)
		os.Exit(1)
	}
}
