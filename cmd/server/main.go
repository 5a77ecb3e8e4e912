package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mirror/webuntis/internal/clients"
	"mirror/webuntis/internal/config"
	internalhttp "mirror/webuntis/internal/http"
	"mirror/webuntis/internal/jobs"
	"mirror/webuntis/internal/payload"
	"mirror/webuntis/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] .env not loaded: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var defaultModule *config.Module
	if cfg.ModuleConfigPath != "" {
		module, err := config.LoadModuleFile(cfg.ModuleConfigPath)
		if err != nil {
			log.Fatalf("module config: %v", err)
		}
		defaultModule = &module
	}

	clients, err := clients.New(ctx, cfg)
	if err != nil {
		log.Fatalf("redis ping failed: %v", err)
	}
	defer clients.Close()

	logger := log.Default()
	store := clients.Cache(cfg.CacheTTL)
	dumper := payload.NewDumper(cfg.DebugDumpDir, cfg.DebugDumpRetention, cfg.DebugDumpAll, logger)
	svc := service.New(clients.Untis, store, payload.NewBuilder(logger, dumper), logger, cfg.GroupConcurrency)
	jobs.StartCacheSweepJob(ctx, cfg, store)

	server := internalhttp.NewServer(cfg, svc, defaultModule)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("webuntis http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
