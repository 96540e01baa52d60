package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/configsrv/hoganserver/internal/gitrepo"
	"github.com/configsrv/hoganserver/internal/headresolver"
	"github.com/configsrv/hoganserver/internal/httpapi"
	"github.com/configsrv/hoganserver/internal/logging"
	"github.com/configsrv/hoganserver/internal/metrics"
	"github.com/configsrv/hoganserver/internal/scheduler"
	"github.com/configsrv/hoganserver/internal/servepipeline"
	"github.com/configsrv/hoganserver/internal/storage"
	"github.com/configsrv/hoganserver/internal/writerslot"
)

func newServerCommand() *cobra.Command {
	var (
		configsURL         string
		address            string
		port               int
		cacheSize          int
		dbPath             string
		dbAgeDays          int
		fetchPollerMs      int
		allowFetch         bool
		envPattern         string
		environmentsFilter string
		datadogAddr        string
		strict             bool
		useNativeGit       bool
		gitFetchOnStart    bool
		gitCloneOnly       bool
		sshKey             string
		logLevel           string
		logFormat          string
	)

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve rendered configuration over HTTP, backed by a tiered cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logLevel, logFormat)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			_ = strict // see DESIGN.md: strict undefined-key checking is not enforced by the render engine

			source, err := gitrepo.NewConfigSourceFromURL(configsURL, sshKey, useNativeGit)
			if err != nil {
				return fmt.Errorf("parse --configs: %w", err)
			}

			coordinator, err := newCoordinator(source, logger)
			if err != nil {
				return fmt.Errorf("initialize config source: %w", err)
			}

			if gitCloneOnly {
				logger.Info("clone complete, exiting (--git-clone)")
				return nil
			}

			if gitFetchOnStart && source.IsGit() {
				if err := coordinator.FetchOnly(cmd.Context()); err != nil {
					return fmt.Errorf("initial fetch: %w", err)
				}
			}

			tiers := []storage.Tier{storage.NewL1(cacheSize)}
			if dbPath != "" {
				l2, err := storage.OpenL2(dbPath)
				if err != nil {
					return fmt.Errorf("open l2 cache: %w", err)
				}
				defer l2.Close()
				tiers = append(tiers, l2)
			}
			cache := storage.NewMultiTier(tiers...)

			slot := writerslot.New()
			resolver := headresolver.New(coordinator, headresolver.DefaultTimeout)
			defer resolver.Close()

			sink, metricsHandler, err := buildMetricsSink(datadogAddr)
			if err != nil {
				return fmt.Errorf("initialize metrics: %w", err)
			}
			if dd, ok := sink.(*metrics.DatadogSink); ok {
				defer dd.Close()
			}

			pipeline := &servepipeline.Pipeline{
				Cache:              cache,
				Coordinator:        coordinator,
				Slot:               slot,
				Resolver:           resolver,
				Metrics:            sink,
				Logger:             logger,
				EnvPatternTemplate: envPattern,
				EnvironmentsFilter: environmentsFilter,
				AllowFetch:         allowFetch,
			}

			router := httpapi.NewRouter(pipeline, sink, logger)
			if metricsHandler != nil {
				router.Get("/metrics", metricsHandler.ServeHTTP)
			}

			httpServer := &http.Server{
				Addr:         fmt.Sprintf("%s:%d", address, port),
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 60 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fetchInterval := scheduler.DefaultFetchInterval
			if fetchPollerMs > 0 {
				fetchInterval = time.Duration(fetchPollerMs) * time.Millisecond
			}
			fetchSched := scheduler.NewFetchScheduler(coordinator, fetchInterval, logger)
			cleanupSched := scheduler.NewCleanupScheduler(tiers, scheduler.DefaultCleanupInterval, dbAgeDays, logger)
			go fetchSched.Run(ctx)
			go cleanupSched.Run(ctx)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting http server", zap.String("address", httpServer.Addr))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- fmt.Errorf("server failed: %w", err)
				}
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutdown signal received, stopping server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("server shutdown: %w", err)
				}
				logger.Info("server stopped")
				return nil
			case err := <-errCh:
				return err
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configsURL, "configs", "", "config source URL (required)")
	flags.StringVar(&address, "address", "0.0.0.0", "listen address")
	flags.IntVar(&port, "port", 8080, "listen port")
	flags.IntVar(&cacheSize, "cache-size", 1024, "L1 in-memory cache capacity, in entries")
	flags.StringVar(&dbPath, "db", "", "path to the L2 sqlite cache database (omit to disable L2)")
	flags.IntVar(&dbAgeDays, "db-age", 30, "maximum age in days before a cache entry is swept")
	flags.IntVar(&fetchPollerMs, "fetch-poller", 0, "background fetch interval in milliseconds (0 uses the default)")
	flags.BoolVar(&allowFetch, "allow-fetch", false, "allow on-demand remote fetch when a ref cannot be resolved locally")
	flags.StringVar(&envPattern, "env-pattern", "", "printf-style regex template used to find a single environment's config file")
	flags.StringVar(&environmentsFilter, "environments-filter", "", "regex selecting which config files are environments")
	flags.StringVar(&datadogAddr, "datadog", "", "StatsD address to emit metrics to instead of Prometheus")
	flags.BoolVar(&strict, "strict", false, "accepted for compatibility; has no effect (undefined template keys render empty)")
	flags.BoolVar(&useNativeGit, "git", false, "shell out to the system git binary instead of the in-process client")
	flags.BoolVar(&gitFetchOnStart, "git-fetch", false, "fetch from the remote once before serving")
	flags.BoolVar(&gitCloneOnly, "git-clone", false, "clone the config source and exit without serving")
	flags.StringVar(&sshKey, "ssh-key", "", "SSH private key path for git-backed config sources")
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "json", "log encoding (json, console)")
	_ = cmd.MarkFlagRequired("configs")

	return cmd
}

// buildMetricsSink returns the DataDog sink when addr is set, otherwise a
// Prometheus sink registered against the default registry, along with
// its scrape handler (nil for DataDog, which pushes instead of being
// scraped).
func buildMetricsSink(datadogAddr string) (metrics.Sink, http.Handler, error) {
	if datadogAddr != "" {
		sink, err := metrics.NewDatadogSink(datadogAddr)
		if err != nil {
			return nil, nil, err
		}
		return sink, nil, nil
	}
	sink := metrics.NewPrometheusSink(prometheus.DefaultRegisterer)
	return sink, sink.Handler(), nil
}
