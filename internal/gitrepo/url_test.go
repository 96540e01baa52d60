package gitrepo

import "testing"

func TestParseConfigSourceURL(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantLocal  bool
		wantRemote string
		wantBranch string
		wantInner  string
	}{
		{
			name:      "file scheme",
			raw:       "file:///srv/configs",
			wantLocal: true,
		},
		{
			name:       "bare path treated as file",
			raw:        "/srv/configs",
			wantLocal:  true,
		},
		{
			name:       "https with branch",
			raw:        "https://github.com/cvent/hogan.git#master",
			wantRemote: "https://github.com/cvent/hogan.git",
			wantBranch: "master",
		},
		{
			name:       "https with subpath and branch",
			raw:        "https://github.com/cvent/hogan.git/configs#release",
			wantRemote: "https://github.com/cvent/hogan.git",
			wantBranch: "release",
			wantInner:  "configs",
		},
		{
			name:       "scp style rewritten to ssh",
			raw:        "git@github.com:cvent/hogan.git",
			wantRemote: "ssh://git@github.com/cvent/hogan.git",
		},
		{
			name:       "scp style with subpath and branch",
			raw:        "git@github.com:cvent/hogan.git/internal/path#branch",
			wantRemote: "ssh://git@github.com/cvent/hogan.git",
			wantBranch: "branch",
			wantInner:  "internal/path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfigSourceURL(tt.raw)
			if err != nil {
				t.Fatalf("ParseConfigSourceURL(%q): %v", tt.raw, err)
			}
			if got.IsLocal != tt.wantLocal {
				t.Errorf("IsLocal = %v, want %v", got.IsLocal, tt.wantLocal)
			}
			if !tt.wantLocal && got.RemoteURL != tt.wantRemote {
				t.Errorf("RemoteURL = %q, want %q", got.RemoteURL, tt.wantRemote)
			}
			if got.Branch != tt.wantBranch {
				t.Errorf("Branch = %q, want %q", got.Branch, tt.wantBranch)
			}
			if got.InternalPath != tt.wantInner {
				t.Errorf("InternalPath = %q, want %q", got.InternalPath, tt.wantInner)
			}
		})
	}
}

func TestParseConfigSourceURLEmpty(t *testing.T) {
	if _, err := ParseConfigSourceURL(""); err == nil {
		t.Errorf("expected error for empty URL")
	}
}
