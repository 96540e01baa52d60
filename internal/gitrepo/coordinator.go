// Package gitrepo owns the working tree that backs the config loader: a
// repository coordinator that mediates clone/fetch/reset against either
// a plain local directory or a git-backed remote, in-process via go-git
// or by shelling to the system git binary when native mode is enabled.
//
// The coordinator is not internally synchronized for writes to the
// working tree: callers must hold the writer slot (internal/writerslot)
// across any call that can move HEAD (Refresh). Read-only calls
// (Directory, Find, FindBranchHead without a refresh) are safe to call
// concurrently with each other, but not with a concurrent Refresh.
package gitrepo

import (
	"context"
	"regexp"

	"github.com/configsrv/hoganserver/internal/configmodel"
)

// Coordinator is implemented by both the local-directory and git-backed
// variants of a ConfigSource.
type Coordinator interface {
	// Directory returns the path where JSON config files currently live.
	Directory() string

	// Refresh moves the working tree to targetSha. If targetSha cannot be
	// resolved locally and allowFetch is true, it fetches from remote and
	// retries; if still unresolved, returns *apperr.UnknownSHA. Returns the
	// resolved full commit id. The file variant is a no-op returning a
	// synthetic id.
	Refresh(ctx context.Context, targetSha string, allowFetch bool) (string, error)

	// FindBranchHead resolves branch to its tip, optionally refreshing
	// refs first. Returns *apperr.UnknownBranch when the ref does not
	// resolve.
	FindBranchHead(ctx context.Context, branch string, allowFetch bool) (string, error)

	// FetchOnly advances refs without moving the working tree.
	FetchOnly(ctx context.Context) error

	// PerformMaintenance delegates to the external git executable when
	// native mode is enabled; otherwise a no-op.
	PerformMaintenance(ctx context.Context) error

	// Find scans the working tree for JSON files matching filter,
	// merging global ⊕ env-type ⊕ own config_data for each Environment
	// document found.
	Find(filter *regexp.Regexp) ([]configmodel.Environment, error)
}

// AllEnvironmentsPattern is the fallback regex used when a per-environment
// pattern fails to compile, matching every "config.*.json" file.
const AllEnvironmentsPattern = `(?i)^config\..+\.json$`
