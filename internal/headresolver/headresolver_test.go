package headresolver

import (
	"context"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/configsrv/hoganserver/internal/configmodel"
)

type countingCoordinator struct {
	calls int32
	delay time.Duration
	sha   string
	err   error
}

func (c *countingCoordinator) Directory() string { return "" }

func (c *countingCoordinator) Refresh(ctx context.Context, targetSha string, allowFetch bool) (string, error) {
	return targetSha, nil
}

func (c *countingCoordinator) FindBranchHead(ctx context.Context, branch string, allowFetch bool) (string, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.sha, c.err
}

func (c *countingCoordinator) FetchOnly(ctx context.Context) error         { return nil }
func (c *countingCoordinator) PerformMaintenance(ctx context.Context) error { return nil }
func (c *countingCoordinator) Find(filter *regexp.Regexp) ([]configmodel.Environment, error) {
	return nil, nil
}

func TestResolveDedupsConcurrentCallsForSameBranch(t *testing.T) {
	coord := &countingCoordinator{delay: 30 * time.Millisecond, sha: "abc1234"}
	r := New(coord, time.Second)
	defer r.Close()

	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sha, err := r.Resolve(context.Background(), "main", true)
			if err != nil {
				t.Errorf("Resolve: %v", err)
				return
			}
			results[i] = sha
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&coord.calls); got != 1 {
		t.Errorf("expected exactly one underlying FindBranchHead call, got %d", got)
	}
	for _, sha := range results {
		if sha != "abc1234" {
			t.Errorf("got sha %q, want abc1234", sha)
		}
	}
}

func TestResolveSeparateBranchesDoNotDedup(t *testing.T) {
	coord := &countingCoordinator{sha: "abc1234"}
	r := New(coord, time.Second)
	defer r.Close()

	if _, err := r.Resolve(context.Background(), "main", true); err != nil {
		t.Fatalf("Resolve main: %v", err)
	}
	if _, err := r.Resolve(context.Background(), "release", true); err != nil {
		t.Fatalf("Resolve release: %v", err)
	}

	if got := atomic.LoadInt32(&coord.calls); got != 2 {
		t.Errorf("expected two calls for two distinct branches, got %d", got)
	}
}

func TestResolveContextCancelReturnsTimeout(t *testing.T) {
	coord := &countingCoordinator{delay: 200 * time.Millisecond, sha: "abc1234"}
	r := New(coord, time.Second)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Resolve(ctx, "main", true)
	if err == nil {
		t.Fatalf("expected error from cancelled context")
	}
}
