// Package scheduler runs the two background loops that keep a git-backed
// config source warm: a fast fetch loop and a slow maintenance/cleanup
// loop, both built on the ticker+select pattern the teacher repo uses for
// its zombie-cleanup loop.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/configsrv/hoganserver/internal/gitrepo"
	"github.com/configsrv/hoganserver/internal/storage"
)

// DefaultFetchInterval matches the spec's ~10 second background poll.
const DefaultFetchInterval = 10 * time.Second

// MaintenanceEveryNTicks runs PerformMaintenance once every tenth fetch
// tick, so it fires on roughly the same cadence the spec describes
// without a second ticker racing the fetch one.
const MaintenanceEveryNTicks = 10

// FetchScheduler periodically calls FetchOnly (and, every Nth tick,
// PerformMaintenance) against a git-backed coordinator. Neither call
// touches the working tree — only refs — so the scheduler runs without
// ever contending with the hot path for the writer slot. No-op against a
// FileCoordinator since FetchOnly and PerformMaintenance are no-ops there,
// but the scheduler does not need to know which variant it was given.
type FetchScheduler struct {
	coordinator gitrepo.Coordinator
	interval    time.Duration
	logger      *zap.Logger
}

// NewFetchScheduler builds a scheduler with the given tick interval. A
// non-positive interval falls back to DefaultFetchInterval.
func NewFetchScheduler(coordinator gitrepo.Coordinator, interval time.Duration, logger *zap.Logger) *FetchScheduler {
	if interval <= 0 {
		interval = DefaultFetchInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FetchScheduler{coordinator: coordinator, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, ticking at the configured interval.
func (s *FetchScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("fetch scheduler started", zap.Duration("interval", s.interval))

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("fetch scheduler stopped")
			return
		case <-ticker.C:
			tick++
			s.runFetch(ctx)
			if tick%MaintenanceEveryNTicks == 0 {
				s.runMaintenance(ctx)
			}
		}
	}
}

func (s *FetchScheduler) runFetch(ctx context.Context) {
	if err := s.coordinator.FetchOnly(ctx); err != nil {
		s.logger.Warn("background fetch failed", zap.Error(err))
	}
}

func (s *FetchScheduler) runMaintenance(ctx context.Context) {
	if err := s.coordinator.PerformMaintenance(ctx); err != nil {
		s.logger.Warn("background maintenance failed", zap.Error(err))
	}
}

// CleanupScheduler periodically purges aged cache entries from every
// storage tier. It runs once immediately at startup in addition to its
// ticker, so a freshly started process does not carry stale entries for a
// full day before its first sweep.
type CleanupScheduler struct {
	tiers    []storage.Tier
	interval time.Duration
	maxAge   int
	logger   *zap.Logger
}

// DefaultCleanupInterval matches the spec's 24 hour cache sweep.
const DefaultCleanupInterval = 24 * time.Hour

// NewCleanupScheduler builds a scheduler over the given tiers, purging
// entries older than maxAgeDays on each sweep.
func NewCleanupScheduler(tiers []storage.Tier, interval time.Duration, maxAgeDays int, logger *zap.Logger) *CleanupScheduler {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupScheduler{tiers: tiers, interval: interval, maxAge: maxAgeDays, logger: logger}
}

// Run blocks until ctx is cancelled, sweeping once immediately and then on
// every tick.
func (s *CleanupScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("cleanup scheduler started", zap.Duration("interval", s.interval), zap.Int("max_age_days", s.maxAge))

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("cleanup scheduler stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *CleanupScheduler) sweep(ctx context.Context) {
	for _, tier := range s.tiers {
		if err := tier.Clean(ctx, s.maxAge); err != nil {
			s.logger.Warn("tier cleanup failed", zap.String("tier", tier.ID()), zap.Error(err))
		}
	}
}
