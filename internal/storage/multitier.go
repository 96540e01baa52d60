package storage

import (
	"context"
	"fmt"

	"github.com/configsrv/hoganserver/internal/configmodel"
)

// MultiTier composes an ordered list of tiers into a single
// read-through/write-through facade. Reads try tiers in order; on the
// first hit, the entry is promoted (written back) into every earlier
// tier that missed. Writes are write-through to every tier. Any
// non-miss error from a tier halts the walk immediately.
type MultiTier struct {
	tiers []Tier
}

// NewMultiTier builds a facade over tiers, conventionally [L1, L2].
func NewMultiTier(tiers ...Tier) *MultiTier {
	return &MultiTier{tiers: tiers}
}

// ReadEnv tries each tier in order, promoting into earlier misses on hit.
func (m *MultiTier) ReadEnv(ctx context.Context, env, sha string) (configmodel.Environment, bool, error) {
	var missed []Tier
	for _, t := range m.tiers {
		e, err := t.ReadEnv(ctx, env, sha)
		switch {
		case err == nil:
			for _, miss := range missed {
				_ = miss.WriteEnv(ctx, env, sha, e)
			}
			return e, true, nil
		case err == ErrMiss:
			missed = append(missed, t)
			continue
		default:
			return configmodel.Environment{}, false, fmt.Errorf("multitier: tier %s: %w", t.ID(), err)
		}
	}
	return configmodel.Environment{}, false, nil
}

// WriteEnv writes through to every tier, collecting (not halting on) the
// first error so that a failing tier does not prevent the others from
// being populated; the first error, if any, is returned to the caller.
func (m *MultiTier) WriteEnv(ctx context.Context, env, sha string, e configmodel.Environment) error {
	var firstErr error
	for _, t := range m.tiers {
		if err := t.WriteEnv(ctx, env, sha, e); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("multitier: tier %s: %w", t.ID(), err)
		}
	}
	return firstErr
}

// ReadListing mirrors ReadEnv for listings.
func (m *MultiTier) ReadListing(ctx context.Context, sha string) (configmodel.Listing, bool, error) {
	var missed []Tier
	for _, t := range m.tiers {
		l, err := t.ReadListing(ctx, sha)
		switch {
		case err == nil:
			for _, miss := range missed {
				_ = miss.WriteListing(ctx, sha, l)
			}
			return l, true, nil
		case err == ErrMiss:
			missed = append(missed, t)
			continue
		default:
			return nil, false, fmt.Errorf("multitier: tier %s: %w", t.ID(), err)
		}
	}
	return nil, false, nil
}

// WriteListing mirrors WriteEnv for listings.
func (m *MultiTier) WriteListing(ctx context.Context, sha string, l configmodel.Listing) error {
	var firstErr error
	for _, t := range m.tiers {
		if err := t.WriteListing(ctx, sha, l); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("multitier: tier %s: %w", t.ID(), err)
		}
	}
	return firstErr
}

// Clean invokes Clean(maxAgeDays) on every tier, collecting errors keyed
// by tier id rather than stopping at the first failure.
func (m *MultiTier) Clean(ctx context.Context, maxAgeDays int) map[string]error {
	errs := make(map[string]error)
	for _, t := range m.tiers {
		if err := t.Clean(ctx, maxAgeDays); err != nil {
			errs[t.ID()] = err
		}
	}
	return errs
}

// Tiers exposes the underlying ordered tier list, e.g. for a caller that
// runs each tier's Clean call individually.
func (m *MultiTier) Tiers() []Tier { return m.tiers }
