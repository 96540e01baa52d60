package scheduler

import (
	"context"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/configsrv/hoganserver/internal/configmodel"
	"github.com/configsrv/hoganserver/internal/storage"
)

type fakeCoordinator struct {
	fetches      int32
	maintenances int32
}

func (f *fakeCoordinator) Directory() string { return "" }
func (f *fakeCoordinator) Refresh(ctx context.Context, targetSha string, allowFetch bool) (string, error) {
	return targetSha, nil
}
func (f *fakeCoordinator) FindBranchHead(ctx context.Context, branch string, allowFetch bool) (string, error) {
	return "", nil
}
func (f *fakeCoordinator) FetchOnly(ctx context.Context) error {
	atomic.AddInt32(&f.fetches, 1)
	return nil
}
func (f *fakeCoordinator) PerformMaintenance(ctx context.Context) error {
	atomic.AddInt32(&f.maintenances, 1)
	return nil
}
func (f *fakeCoordinator) Find(filter *regexp.Regexp) ([]configmodel.Environment, error) {
	return nil, nil
}

func TestFetchSchedulerTicksAndStops(t *testing.T) {
	coord := &fakeCoordinator{}
	s := NewFetchScheduler(coord, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(40 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}

	if atomic.LoadInt32(&coord.fetches) == 0 {
		t.Errorf("expected at least one fetch call")
	}
}

type fakeTier struct {
	id      string
	cleaned int32
}

func (f *fakeTier) ReadEnv(ctx context.Context, env, sha string) (configmodel.Environment, error) {
	return configmodel.Environment{}, nil
}
func (f *fakeTier) WriteEnv(ctx context.Context, env, sha string, e configmodel.Environment) error {
	return nil
}
func (f *fakeTier) ReadListing(ctx context.Context, sha string) (configmodel.Listing, error) {
	return nil, nil
}
func (f *fakeTier) WriteListing(ctx context.Context, sha string, l configmodel.Listing) error {
	return nil
}
func (f *fakeTier) Clean(ctx context.Context, maxAgeDays int) error {
	atomic.AddInt32(&f.cleaned, 1)
	return nil
}
func (f *fakeTier) ID() string { return f.id }

func TestCleanupSchedulerSweepsImmediatelyOnStart(t *testing.T) {
	tier := &fakeTier{id: "l1"}
	s := NewCleanupScheduler([]storage.Tier{tier}, time.Hour, 30, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup scheduler did not stop")
	}

	if atomic.LoadInt32(&tier.cleaned) == 0 {
		t.Errorf("expected immediate sweep at startup")
	}
}
