// Package main wires together the chatbot detection service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/chatlens/chatlens/internal/analyzer"
	"github.com/chatlens/chatlens/internal/api"
	"github.com/chatlens/chatlens/internal/batch"
	cachemem "github.com/chatlens/chatlens/internal/cache/memory"
	cachepg "github.com/chatlens/chatlens/internal/cache/postgres"
	"github.com/chatlens/chatlens/internal/clock/system"
	"github.com/chatlens/chatlens/internal/config"
	"github.com/chatlens/chatlens/internal/denylist"
	"github.com/chatlens/chatlens/internal/detect"
	"github.com/chatlens/chatlens/internal/detector"
	collyfetcher "github.com/chatlens/chatlens/internal/fetcher/colly"
	"github.com/chatlens/chatlens/internal/id/uuid"
	"github.com/chatlens/chatlens/internal/logging"
	"github.com/chatlens/chatlens/internal/metrics"
	"github.com/chatlens/chatlens/internal/patterns"
	"github.com/chatlens/chatlens/internal/progress"
	"github.com/chatlens/chatlens/internal/progress/sinks"
	storemem "github.com/chatlens/chatlens/internal/store/memory"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	clock := system.New()
	idGen := uuid.New()
	deny := denylist.New(cfg.Denylist.ExtraHosts)
	contentAnalyzer := analyzer.New(
		patterns.NewLibrary(),
		cfg.Detector.ConfidenceFloor,
		logging.Component(logger, "analyzer"),
	)
	fallback := analyzer.NewKeywordPass(analyzer.DentalRule())
	fetcher := collyfetcher.New(cfg.FetcherSettings(), logging.Component(logger, "fetcher"))

	var resultCache detect.ResultCache
	if cfg.DB.DSN != "" {
		pgCache, err := cachepg.NewCache(ctx, cfg.CacheSettings())
		if err != nil {
			logger.Fatal("postgres cache init failed", zap.Error(err))
		}
		defer pgCache.Close()
		resultCache = pgCache
		logger.Info("using postgres result cache", zap.String("table", cfg.DB.Table))
	} else {
		resultCache = cachemem.NewCache()
		logger.Info("using in-memory result cache")
	}

	det := detector.New(
		fetcher,
		resultCache,
		contentAnalyzer,
		deny,
		clock,
		cfg.DetectorSettings(),
		logging.Component(logger, "detector"),
	)

	promSink, err := sinks.NewPrometheusSink(nil)
	if err != nil {
		logger.Fatal("prometheus sink init failed", zap.Error(err))
	}
	hub := progress.NewHub(
		progress.Config{BufferSize: cfg.Progress.BufferSize, Logger: logging.Component(logger, "progress")},
		sinks.NewLogSink(logging.Component(logger, "progress")),
		promSink,
	)

	jobs := storemem.NewJobStore()
	processor := batch.New(
		det,
		jobs,
		hub,
		fallback,
		clock,
		idGen,
		cfg.BatchSettings(),
		logging.Component(logger, "batch"),
	)

	apiServer := api.NewServer(ctx, det, processor, jobs, fallback, logging.Component(logger, "api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownSeconds)*time.Second,
	)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	if err := hub.Close(shutdownCtx); err != nil {
		logger.Error("progress hub shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
