package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"go.uber.org/zap"

	"github.com/configsrv/hoganserver/internal/apperr"
	"github.com/configsrv/hoganserver/internal/configloader"
	"github.com/configsrv/hoganserver/internal/configmodel"
)

const originRemoteName = "origin"

// GitCoordinator backs a git-based ConfigSource, cloning it into a
// temporary working directory at construction time. Refresh, FetchOnly
// and FindBranchHead serialize their use of the repository handle on an
// internal mutex; PerformMaintenance and Find do not take it, and Find
// reads the working tree directly. Callers must hold the writer slot
// around any call that can move HEAD, per the package doc.
type GitCoordinator struct {
	source  ConfigSource
	workDir string
	logger  *zap.Logger

	mu   sync.Mutex // serializes Refresh, FetchOnly and FindBranchHead on repo
	repo *git.Repository
}

// NewGitCoordinator clones source into a fresh temporary directory and
// returns a ready-to-use coordinator.
func NewGitCoordinator(source ConfigSource, logger *zap.Logger) (*GitCoordinator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	workDir, err := os.MkdirTemp("", "hoganserver-configs-*")
	if err != nil {
		return nil, apperr.NewGitError("create working directory", err)
	}
	source.workDir = workDir

	gc := &GitCoordinator{source: source, workDir: workDir, logger: logger}

	if source.NativeGit {
		if err := nativeClone(source, workDir); err != nil {
			return nil, err
		}
		repo, err := git.PlainOpen(workDir)
		if err != nil {
			return nil, apperr.NewGitError("open cloned repository", err)
		}
		gc.repo = repo
		return gc, nil
	}

	repo, err := cloneInProcess(source, workDir)
	if err != nil {
		return nil, err
	}
	gc.repo = repo
	return gc, nil
}

func cloneInProcess(source ConfigSource, workDir string) (*git.Repository, error) {
	opts := &git.CloneOptions{
		URL:        source.Remote,
		RemoteName: originRemoteName,
	}
	if source.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(source.Branch)
	}
	auth, err := buildAuth(source)
	if err != nil {
		return nil, err
	}
	opts.Auth = auth

	repo, err := git.PlainClone(workDir, false, opts)
	if err != nil {
		return nil, apperr.NewGitError(fmt.Sprintf("clone %s", source.Remote), err)
	}
	return repo, nil
}

// buildAuth selects SSH key, embedded-password, or unauthenticated
// transport based on the ConfigSource fields, per spec §4.3.
func buildAuth(source ConfigSource) (transport.AuthMethod, error) {
	if source.SSHKeyPath != "" {
		auth, err := gitssh.NewPublicKeysFromFile("git", source.SSHKeyPath, "")
		if err != nil {
			return nil, apperr.NewGitError("load ssh key", err)
		}
		return auth, nil
	}
	// Password embedded in the URL (user:password@host) is handled by
	// go-git's default http/https transport directly from the URL, so no
	// explicit AuthMethod is needed here.
	return nil, nil
}

func (g *GitCoordinator) Directory() string {
	if g.source.InternalSubpath == "" {
		return g.workDir
	}
	return filepath.Join(g.workDir, g.source.InternalSubpath)
}

// Refresh moves the working tree to targetSha, fetching first when the
// sha cannot be resolved locally and allowFetch is set.
func (g *GitCoordinator) Refresh(ctx context.Context, targetSha string, allowFetch bool) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	full, err := g.resolveLocked(targetSha)
	if err != nil && allowFetch {
		if ferr := g.fetchLocked(ctx); ferr != nil {
			return "", ferr
		}
		full, err = g.resolveLocked(targetSha)
	}
	if err != nil {
		return "", &apperr.UnknownSHA{Sha: targetSha}
	}

	wt, err := g.repo.Worktree()
	if err != nil {
		return "", apperr.NewGitError("open worktree", err)
	}
	if err := wt.Reset(&git.ResetOptions{Commit: plumbing.NewHash(full), Mode: git.HardReset}); err != nil {
		return "", apperr.NewGitError(fmt.Sprintf("reset to %s", full), err)
	}
	return full, nil
}

func (g *GitCoordinator) resolveLocked(sha string) (string, error) {
	h, err := g.repo.ResolveRevision(plumbing.Revision(sha))
	if err != nil {
		return "", err
	}
	return h.String(), nil
}

// FindBranchHead resolves origin/branch to its tip.
func (g *GitCoordinator) FindBranchHead(ctx context.Context, branch string, allowFetch bool) (string, error) {
	if allowFetch {
		if err := g.FetchOnly(ctx); err != nil {
			return "", err
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	ref, err := g.repo.Reference(plumbing.NewRemoteReferenceName(originRemoteName, branch), true)
	if err != nil {
		return "", &apperr.UnknownBranch{Branch: branch}
	}
	return ref.Hash().String(), nil
}

// FetchOnly advances refs without touching the worktree. It is safe to
// call without the writer slot: only ref objects are updated.
func (g *GitCoordinator) FetchOnly(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fetchLocked(ctx)
}

func (g *GitCoordinator) fetchLocked(ctx context.Context) error {
	if g.source.NativeGit {
		return nativeFetch(g.workDir)
	}

	auth, err := buildAuth(g.source)
	if err != nil {
		return err
	}
	err = g.repo.FetchContext(ctx, &git.FetchOptions{RemoteName: originRemoteName, Auth: auth})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return apperr.NewGitError("fetch", err)
	}
	return nil
}

// PerformMaintenance delegates to the system git binary when native mode
// is enabled; otherwise a no-op.
func (g *GitCoordinator) PerformMaintenance(ctx context.Context) error {
	if !g.source.NativeGit {
		return nil
	}
	return nativeMaintenance(g.workDir)
}

func (g *GitCoordinator) Find(filter *regexp.Regexp) ([]configmodel.Environment, error) {
	return configloader.Load(g.Directory(), filter)
}
