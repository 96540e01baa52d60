package gitrepo

// ConfigSource describes where JSON environment configs live: either a
// plain local directory, or a git-backed remote that is cloned into a
// temporary working directory on first use.
type ConfigSource struct {
	// Local is set when the source is a bare directory or file:// URL.
	Local string

	// Remote, Branch, InternalSubpath, SSHKeyPath mirror the git variant
	// of the spec's ConfigSource. NativeGit selects shelling out to the
	// system git binary (clone/fetch/maintenance) instead of using the
	// in-process go-git library.
	Remote          string
	Branch          string
	InternalSubpath string
	SSHKeyPath      string
	NativeGit       bool

	// workDir is the temporary working directory the git variant owns,
	// created at initialization.
	workDir string
}

// IsGit reports whether this source is git-backed.
func (c ConfigSource) IsGit() bool { return c.Remote != "" }

// NewConfigSourceFromURL builds a ConfigSource from a raw configs URL per
// the grammar in SPEC_FULL.md §3.4 / spec.md §6.
func NewConfigSourceFromURL(raw, sshKeyPath string, nativeGit bool) (ConfigSource, error) {
	parsed, err := ParseConfigSourceURL(raw)
	if err != nil {
		return ConfigSource{}, err
	}
	if parsed.IsLocal {
		return ConfigSource{Local: parsed.LocalPath}, nil
	}
	return ConfigSource{
		Remote:          parsed.RemoteURL,
		Branch:          parsed.Branch,
		InternalSubpath: parsed.InternalPath,
		SSHKeyPath:      sshKeyPath,
		NativeGit:       nativeGit,
	}, nil
}
