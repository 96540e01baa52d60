package servepipeline

import (
	"context"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/configsrv/hoganserver/internal/apperr"
	"github.com/configsrv/hoganserver/internal/configmodel"
	"github.com/configsrv/hoganserver/internal/headresolver"
	"github.com/configsrv/hoganserver/internal/storage"
	"github.com/configsrv/hoganserver/internal/writerslot"
)

type fakeCoordinator struct {
	refreshes int32
	envs      []configmodel.Environment
	findErr   error
}

func (f *fakeCoordinator) Directory() string { return "" }
func (f *fakeCoordinator) Refresh(ctx context.Context, targetSha string, allowFetch bool) (string, error) {
	atomic.AddInt32(&f.refreshes, 1)
	return targetSha, nil
}
func (f *fakeCoordinator) FindBranchHead(ctx context.Context, branch string, allowFetch bool) (string, error) {
	if branch == "main" {
		return "cafe123456", nil
	}
	return "", &apperr.UnknownBranch{Branch: branch}
}
func (f *fakeCoordinator) FetchOnly(ctx context.Context) error         { return nil }
func (f *fakeCoordinator) PerformMaintenance(ctx context.Context) error { return nil }
func (f *fakeCoordinator) Find(filter *regexp.Regexp) ([]configmodel.Environment, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.envs, nil
}

func newTestPipeline(t *testing.T, coord *fakeCoordinator) *Pipeline {
	t.Helper()
	l1 := storage.NewL1(8)
	cache := storage.NewMultiTier(l1)
	resolver := headresolver.New(coord, time.Second)
	t.Cleanup(resolver.Close)

	return &Pipeline{
		Cache:       cache,
		Coordinator: coord,
		Slot:        writerslot.New(),
		Resolver:    resolver,
	}
}

func TestGetEnvironmentProducesAndCaches(t *testing.T) {
	coord := &fakeCoordinator{envs: []configmodel.Environment{
		{Name: "TEST", ConfigData: []byte(`{"Region":{"Key":"TEST"}}`)},
	}}
	p := newTestPipeline(t, coord)

	env, key, err := p.GetEnvironment(context.Background(), "abcdef0", "TEST")
	if err != nil {
		t.Fatalf("GetEnvironment: %v", err)
	}
	if key != "abcdef0" {
		t.Errorf("key = %q, want abcdef0", key)
	}
	if env.Name != "TEST" {
		t.Errorf("env.Name = %q, want TEST", env.Name)
	}
	if atomic.LoadInt32(&coord.refreshes) != 1 {
		t.Errorf("expected exactly one refresh, got %d", coord.refreshes)
	}

	// Second call should hit cache, not refresh again.
	if _, _, err := p.GetEnvironment(context.Background(), "abcdef0", "TEST"); err != nil {
		t.Fatalf("second GetEnvironment: %v", err)
	}
	if atomic.LoadInt32(&coord.refreshes) != 1 {
		t.Errorf("expected cache hit to avoid a second refresh, got %d refreshes", coord.refreshes)
	}
}

func TestGetEnvironmentUnknownEnvironment(t *testing.T) {
	coord := &fakeCoordinator{envs: []configmodel.Environment{{Name: "OTHER"}}}
	p := newTestPipeline(t, coord)

	_, _, err := p.GetEnvironment(context.Background(), "abcdef0", "MISSING")
	if err == nil {
		t.Fatalf("expected error for unknown environment")
	}
	if _, ok := err.(*apperr.UnknownEnvironment); !ok {
		t.Errorf("expected *apperr.UnknownEnvironment, got %T", err)
	}
}

func TestResolveRefUsesHeadResolverForNonHex(t *testing.T) {
	coord := &fakeCoordinator{}
	p := newTestPipeline(t, coord)

	sha, err := p.ResolveRef(context.Background(), "main")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if sha != "cafe123456" {
		t.Errorf("sha = %q, want cafe123456", sha)
	}
}

func TestResolveRefPassesThroughHex(t *testing.T) {
	coord := &fakeCoordinator{}
	p := newTestPipeline(t, coord)

	sha, err := p.ResolveRef(context.Background(), "abcdef0")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if sha != "abcdef0" {
		t.Errorf("sha = %q, want abcdef0", sha)
	}
}

func TestRenderEndToEnd(t *testing.T) {
	coord := &fakeCoordinator{envs: []configmodel.Environment{
		{Name: "TEST", ConfigData: []byte(`{"Region":{"Key":"TEST"}}`)},
	}}
	p := newTestPipeline(t, coord)

	out, err := p.Render(context.Background(), "abcdef0", "TEST", "Hello {{Region.Key}}")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "Hello TEST" {
		t.Errorf("Render output = %q, want %q", out, "Hello TEST")
	}
}
