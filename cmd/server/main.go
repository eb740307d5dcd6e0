// Package main - Entry point for the card pricing server
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"cardpricer/api"
	"cardpricer/db"
	"cardpricer/db/reprice"
	"cardpricer/internal/config"
	"cardpricer/internal/logging"
	"cardpricer/internal/scheduler"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	defer logging.Sync()

	store, err := db.NewSQLiteStore(cfg.Database.SQLitePath)
	if err != nil {
		logging.Fatal("open store", zap.Error(err))
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Periodic bulk repricing
	job := reprice.NewJob(store, cfg.Repricing.ChunkSize)
	sched := scheduler.New(ctx, job)
	if err := sched.Register(cfg.Repricing.Cron); err != nil {
		logging.Fatal("register scheduler", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()
	if cfg.Repricing.RunOnStart {
		go sched.RunNow()
	}

	apiServer := api.NewServerWithStore(version, store)
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", apiServer))

	httpServer := &http.Server{Addr: cfg.Server.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	logging.Info("card pricing server listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("version", version),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logging.Fatal("server", zap.Error(err))
	}
}
