package gitrepo

import (
	"context"
	"regexp"

	"github.com/configsrv/hoganserver/internal/configloader"
	"github.com/configsrv/hoganserver/internal/configmodel"
)

// syntheticSha is returned by the file coordinator's Refresh, since a
// plain directory has no commit history to resolve against.
const syntheticSha = "0000000"

// FileCoordinator backs a local-directory ConfigSource. All mutating
// calls are no-ops; it exists so the serving pipeline and schedulers can
// treat file and git sources uniformly.
type FileCoordinator struct {
	dir string
}

// NewFileCoordinator builds a coordinator over a plain directory.
func NewFileCoordinator(dir string) *FileCoordinator {
	return &FileCoordinator{dir: dir}
}

func (f *FileCoordinator) Directory() string { return f.dir }

func (f *FileCoordinator) Refresh(ctx context.Context, targetSha string, allowFetch bool) (string, error) {
	return syntheticSha, nil
}

func (f *FileCoordinator) FindBranchHead(ctx context.Context, branch string, allowFetch bool) (string, error) {
	return syntheticSha, nil
}

func (f *FileCoordinator) FetchOnly(ctx context.Context) error { return nil }

func (f *FileCoordinator) PerformMaintenance(ctx context.Context) error { return nil }

func (f *FileCoordinator) Find(filter *regexp.Regexp) ([]configmodel.Environment, error) {
	return configloader.Load(f.dir, filter)
}
