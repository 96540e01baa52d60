package gitrepo

import (
	"regexp"
	"strings"

	"github.com/configsrv/hoganserver/internal/apperr"
)

// ParsedURL is the decomposed form of a ConfigSource URL per the grammar
// in the external interfaces section:
//
//	file://path
//	<scheme>://[user[:password]@]host[:port]/.../repo.git[/subpath][#branch]
//	user@host:path/repo.git[/subpath][#branch]   (SCP-style, rewritten to ssh://)
//	bare path                                     (treated as file://)
type ParsedURL struct {
	IsLocal    bool
	LocalPath  string
	RemoteURL  string // always a proper scheme://... URL once parsed
	Branch     string
	InternalPath string
}

var scpLike = regexp.MustCompile(`^([^@/]+)@([^:/]+):(.+)$`)

// ParseConfigSourceURL parses raw per the grammar above.
func ParseConfigSourceURL(raw string) (ParsedURL, error) {
	if raw == "" {
		return ParsedURL{}, &apperr.InvalidConfiguration{Message: "empty configs URL"}
	}

	if strings.HasPrefix(raw, "file://") {
		path, branch, internal := splitBranchAndSubpath(strings.TrimPrefix(raw, "file://"))
		return ParsedURL{IsLocal: true, LocalPath: path, Branch: branch, InternalPath: internal}, nil
	}

	if hasKnownScheme(raw) {
		base, branch, internal := splitBranchAndSubpath(raw)
		return ParsedURL{RemoteURL: base, Branch: branch, InternalPath: internal}, nil
	}

	// SCP-style: user@host:path/repo.git[/subpath][#branch]
	if m := scpLike.FindStringSubmatch(strings.SplitN(raw, "#", 2)[0]); m != nil {
		user, host, rest := m[1], m[2], m[3]
		full := raw[strings.Index(raw, ":")+1:]
		_, branch, _ := splitBranchAndSubpath(full) // only branch matters from the rest
		base, internal := splitGitSuffix(rest)
		return ParsedURL{
			RemoteURL:    "ssh://" + user + "@" + host + "/" + base,
			Branch:       branch,
			InternalPath: internal,
		}, nil
	}

	// Bare path: treated as file://
	path, branch, internal := splitBranchAndSubpath(raw)
	return ParsedURL{IsLocal: true, LocalPath: path, Branch: branch, InternalPath: internal}, nil
}

func hasKnownScheme(raw string) bool {
	for _, s := range []string{"http://", "https://", "ssh://", "git://"} {
		if strings.HasPrefix(raw, s) {
			return true
		}
	}
	return false
}

// splitBranchAndSubpath splits "base.git/subpath#branch" into
// ("base.git", "branch", "subpath"), following the original
// implementation's ".git" + "#" split, then pulling out any trailing
// internal subpath after the ".git" boundary.
func splitBranchAndSubpath(s string) (base, branch, internal string) {
	gitIdx := strings.Index(s, ".git")
	if gitIdx < 0 {
		// No ".git" boundary — split only on '#'.
		parts := strings.SplitN(s, "#", 2)
		base = parts[0]
		if len(parts) == 2 {
			branch = parts[1]
		}
		return base, branch, ""
	}

	base = s[:gitIdx+4]
	rest := s[gitIdx+4:]

	hashParts := strings.SplitN(rest, "#", 2)
	rest = hashParts[0]
	if len(hashParts) == 2 {
		branch = hashParts[1]
	}
	internal = strings.TrimPrefix(rest, "/")
	return base, branch, internal
}

func splitGitSuffix(rest string) (base, internal string) {
	gitIdx := strings.Index(rest, ".git")
	if gitIdx < 0 {
		return rest, ""
	}
	base = rest[:gitIdx+4]
	internal = strings.TrimPrefix(rest[gitIdx+4:], "/")
	return base, internal
}
