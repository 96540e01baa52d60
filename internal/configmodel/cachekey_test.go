package configmodel

import "testing"

func TestNormalizeSha(t *testing.T) {
	tests := []struct {
		name string
		sha  string
		want string
	}{
		{"full sha truncates to seven", "abcdef01234567890", "abcdef0"},
		{"exact seven passes through", "abcdef0", "abcdef0"},
		{"short prefix passes through unmodified", "abc", "abc"},
		{"empty stays empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeSha(tt.sha); got != tt.want {
				t.Errorf("NormalizeSha(%q) = %q, want %q", tt.sha, got, tt.want)
			}
		})
	}
}

func TestCacheKeyRoundTrip(t *testing.T) {
	k := EnvKey("TEST", "abcdef01234")
	parsed, err := ParseCacheKey(k.String())
	if err != nil {
		t.Fatalf("ParseCacheKey: %v", err)
	}
	if parsed != k {
		t.Errorf("round trip mismatch: got %+v, want %+v", parsed, k)
	}
}

func TestListingKeyMarker(t *testing.T) {
	k := ListingKey("abcdef0")
	if !k.IsListing() {
		t.Errorf("expected listing key to report IsListing")
	}
	if k.Env != ListingMarker {
		t.Errorf("expected env slot %q, got %q", ListingMarker, k.Env)
	}
}

func TestParseCacheKeyMalformed(t *testing.T) {
	if _, err := ParseCacheKey("no-separator"); err == nil {
		t.Errorf("expected error for malformed key")
	}
}
