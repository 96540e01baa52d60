// Package storage implements the tiered content-addressed cache: a
// bounded in-memory L1, an on-disk sqlite-backed L2, and the multi-tier
// facade that composes them with promotion on read.
package storage

import (
	"context"
	"errors"

	"github.com/configsrv/hoganserver/internal/configmodel"
)

// ErrMiss is returned by a tier's Read* methods when the key is absent.
// It is distinct from any other error so callers can tell "not found"
// from "tier is broken".
var ErrMiss = errors.New("storage: miss")

// Tier is implemented by every cache tier (L1, L2, …). Tiers must be
// safe for concurrent reads and concurrent writes of distinct keys.
// Writing the same key concurrently may pick any winner but must never
// corrupt an existing valid entry.
type Tier interface {
	ReadEnv(ctx context.Context, env, sha string) (configmodel.Environment, error)
	WriteEnv(ctx context.Context, env, sha string, e configmodel.Environment) error
	ReadListing(ctx context.Context, sha string) (configmodel.Listing, error)
	WriteListing(ctx context.Context, sha string, l configmodel.Listing) error
	Clean(ctx context.Context, maxAgeDays int) error
	ID() string
}
