// Package writerslot bounds concurrent writers to the git working tree to
// exactly one at a time, while leaving cache reads unrestricted. Any
// operation that can move HEAD (a coordinator Refresh, which may fetch
// and then hard-resets the working tree) must hold the slot for its
// duration; ref-only fetches do not take it.
package writerslot

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/configsrv/hoganserver/internal/apperr"
)

// Slot is a single-holder semaphore with a bounded wait.
type Slot struct {
	sem *semaphore.Weighted
}

// New returns a ready Slot.
func New() *Slot {
	return &Slot{sem: semaphore.NewWeighted(1)}
}

// Acquire blocks until the slot is free or ctx is done, returning
// *apperr.InternalTimeout if ctx expires first. The returned release func
// must be called exactly once to give the slot back.
func (s *Slot) Acquire(ctx context.Context) (release func(), err error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, &apperr.InternalTimeout{}
	}
	return func() { s.sem.Release(1) }, nil
}

// TryAcquire attempts to take the slot without blocking.
func (s *Slot) TryAcquire() (release func(), ok bool) {
	if !s.sem.TryAcquire(1) {
		return nil, false
	}
	return func() { s.sem.Release(1) }, true
}
