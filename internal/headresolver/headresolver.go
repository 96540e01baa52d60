// Package headresolver deduplicates concurrent branch-head lookups behind
// a single actor goroutine, the way internal/poolmanager in the teacher
// repo serializes pod reconciliation through one holder loop fed by
// channels rather than a mutex. Multiple callers asking for the same
// branch while a resolution is in flight share its result instead of
// each triggering their own fetch.
package headresolver

import (
	"context"
	"time"

	"github.com/configsrv/hoganserver/internal/apperr"
	"github.com/configsrv/hoganserver/internal/gitrepo"
)

// DefaultTimeout bounds how long a branch resolution may stay in flight
// before waiters are released with a timeout error.
const DefaultTimeout = 60 * time.Second

// DefaultStalenessInterval is how long a branch's last remote fetch is
// considered fresh. A query that allows fetching only actually triggers
// one if more than this long has elapsed since the last fetch-allowed
// resolution of that branch (tracked per branch by the holder loop);
// otherwise it resolves from the coordinator's locally known refs.
const DefaultStalenessInterval = 10 * time.Second

type resolveResult struct {
	sha string
	err error
}

type queryMsg struct {
	branch     string
	allowFetch bool
	reply      chan resolveResult
}

type resultMsg struct {
	reqID  uint64
	branch string
	sha    string
	err    error
}

type timeoutMsg struct {
	reqID  uint64
	branch string
}

type pendingRequest struct {
	reqID   uint64
	waiters []chan resolveResult
}

// Resolver runs a single HolderActor goroutine that owns all in-flight
// branch resolution state, fed by a pool of WorkerActor goroutines that
// each perform exactly one coordinator.FindBranchHead call.
type Resolver struct {
	coordinator gitrepo.Coordinator
	timeout     time.Duration
	staleness   time.Duration

	queries  chan queryMsg
	results  chan resultMsg
	timeouts chan timeoutMsg
	done     chan struct{}
}

// New starts the holder actor and returns a ready Resolver. Call Close
// when done to stop the goroutine.
func New(coordinator gitrepo.Coordinator, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r := &Resolver{
		coordinator: coordinator,
		timeout:     timeout,
		staleness:   DefaultStalenessInterval,
		queries:     make(chan queryMsg),
		results:     make(chan resultMsg, 8),
		timeouts:    make(chan timeoutMsg, 8),
		done:        make(chan struct{}),
	}
	go r.holderLoop()
	return r
}

// Close stops the holder actor. In-flight waiters are not notified; callers
// should already have their own context deadlines.
func (r *Resolver) Close() { close(r.done) }

// Resolve asks for branch's current head, sharing the result with any
// other caller already waiting on the same branch.
func (r *Resolver) Resolve(ctx context.Context, branch string, allowFetch bool) (string, error) {
	reply := make(chan resolveResult, 1)
	select {
	case r.queries <- queryMsg{branch: branch, allowFetch: allowFetch, reply: reply}:
	case <-ctx.Done():
		return "", &apperr.InternalTimeout{}
	case <-r.done:
		return "", &apperr.InternalTimeout{}
	}

	select {
	case res := <-reply:
		return res.sha, res.err
	case <-ctx.Done():
		return "", &apperr.InternalTimeout{}
	}
}

func (r *Resolver) holderLoop() {
	inflight := make(map[string]*pendingRequest)
	// lastRefreshed tracks, per branch, the last time a worker was
	// allowed to actually fetch from the remote. Only the holder loop
	// touches this map, so it needs no locking.
	lastRefreshed := make(map[string]time.Time)
	var counter uint64

	for {
		select {
		case q := <-r.queries:
			pending, ok := inflight[q.branch]
			if ok {
				pending.waiters = append(pending.waiters, q.reply)
				continue
			}
			counter++
			reqID := counter
			pending = &pendingRequest{reqID: reqID, waiters: []chan resolveResult{q.reply}}
			inflight[q.branch] = pending

			allowFetch := q.allowFetch
			if allowFetch {
				if last, seen := lastRefreshed[q.branch]; seen && time.Since(last) < r.staleness {
					allowFetch = false
				} else {
					lastRefreshed[q.branch] = time.Now()
				}
			}

			go r.worker(q.branch, allowFetch, reqID)
			time.AfterFunc(r.timeout, func() {
				select {
				case r.timeouts <- timeoutMsg{reqID: reqID, branch: q.branch}:
				case <-r.done:
				}
			})

		case res := <-r.results:
			pending, ok := inflight[res.branch]
			if !ok || pending.reqID != res.reqID {
				continue // superseded by a timeout+retry; discard
			}
			for _, w := range pending.waiters {
				w <- resolveResult{sha: res.sha, err: res.err}
			}
			delete(inflight, res.branch)

		case t := <-r.timeouts:
			pending, ok := inflight[t.branch]
			if !ok || pending.reqID != t.reqID {
				continue // already resolved before the timer fired
			}
			for _, w := range pending.waiters {
				w <- resolveResult{err: &apperr.InternalTimeout{}}
			}
			delete(inflight, t.branch)

		case <-r.done:
			return
		}
	}
}

// worker is the WorkerActor half: it performs the actual blocking call and
// reports back to the holder, never touching shared state directly.
func (r *Resolver) worker(branch string, allowFetch bool, reqID uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	sha, err := r.coordinator.FindBranchHead(ctx, branch, allowFetch)

	select {
	case r.results <- resultMsg{reqID: reqID, branch: branch, sha: sha, err: err}:
	case <-r.done:
	}
}
