package main

import (
	"go.uber.org/zap"

	"github.com/configsrv/hoganserver/internal/gitrepo"
)

// newCoordinator picks the file or git-backed gitrepo.Coordinator
// implementation for source, shared by the transform and server
// subcommands.
func newCoordinator(source gitrepo.ConfigSource, logger *zap.Logger) (gitrepo.Coordinator, error) {
	if !source.IsGit() {
		return gitrepo.NewFileCoordinator(source.Local), nil
	}
	return gitrepo.NewGitCoordinator(source, logger)
}
