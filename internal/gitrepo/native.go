package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/configsrv/hoganserver/internal/apperr"
)

// nativeClone, nativeFetch and nativeMaintenance shell to the system git
// binary, mirroring how original_source/src/git.rs drives the git command
// line rather than an in-process library. Resolving revisions and
// resetting the worktree still go through go-git (opened against the
// resulting .git directory) regardless of which mode cloned it.
func nativeClone(source ConfigSource, workDir string) error {
	args := []string{"clone"}
	if source.Branch != "" {
		args = append(args, "--branch", source.Branch)
	}
	args = append(args, source.Remote, workDir)
	return runGit(workDir, args...)
}

func nativeFetch(workDir string) error {
	return runGit(workDir, "fetch", originRemoteName)
}

func nativeMaintenance(workDir string) error {
	return runGit(workDir, "gc", "--auto")
}

func runGit(dir string, args ...string) error {
	cmd := exec.CommandContext(context.Background(), "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return apperr.NewGitError(fmt.Sprintf("git %v: %s", args, stderr.String()), err)
	}
	return nil
}
