package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"storygraph/internal/chapterfs"
	"storygraph/internal/config"
	"storygraph/internal/game"
	"storygraph/internal/logger"
	"storygraph/internal/session"
	"storygraph/internal/validate"
	"storygraph/internal/web"
)

func main() {
	// .env is optional, for local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	lg, err := logger.New(cfg.Logger())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, paths, err := chapterfs.New(nil).Load(ctx, cfg.Chapters...)
	if err != nil {
		lg.Fatal("Failed to load story", zap.Strings("chapters", cfg.Chapters), zap.Error(err))
	}
	lg.Info("Story loaded", zap.Strings("files", paths), zap.Int("nodes", doc.Len()))

	report := validate.Validate(doc)
	for _, f := range report.Warnings {
		lg.Warn("Story warning", zap.String("kind", string(f.Kind)), zap.String("node", f.NodeID), zap.String("message", f.Message))
	}
	for _, f := range report.Errors {
		lg.Error("Story error", zap.String("kind", string(f.Kind)), zap.String("node", f.NodeID), zap.String("message", f.Message))
	}
	if report.HasErrors() && cfg.Strict {
		lg.Fatal("Refusing to serve a story with validation errors", zap.Int("errors", len(report.Errors)))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv, err := web.NewServer(doc, session.NewMemoryStore[game.State](), lg, reg)
	if err != nil {
		lg.Fatal("Failed to build server", zap.Error(err))
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		lg.Info("Listening", zap.String("addr", cfg.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		lg.Error("Graceful shutdown failed", zap.Error(err))
	}
}
