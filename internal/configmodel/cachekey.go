package configmodel

import (
	"fmt"
	"strings"
)

// ListingMarker is the env-slot value used for listing cache keys.
const ListingMarker = "!listing"

// ShaPrefixLen is the canonical stored length of a commit id. Lookups
// may supply a shorter prefix; storage never does.
const ShaPrefixLen = 7

// CacheKey identifies a cached artifact: "env-name::commit-id" for
// environments, "!listing::commit-id" for listings.
type CacheKey struct {
	Env string
	Sha string
}

// NormalizeSha truncates a full sha to the canonical 7-character prefix
// used as the storage key. Shas shorter than the prefix length pass
// through unmodified — callers rely on prefix matching at read time.
func NormalizeSha(sha string) string {
	if len(sha) <= ShaPrefixLen {
		return sha
	}
	return sha[:ShaPrefixLen]
}

// EnvKey builds the cache key for an environment at sha.
func EnvKey(env, sha string) CacheKey {
	return CacheKey{Env: env, Sha: NormalizeSha(sha)}
}

// ListingKey builds the cache key for a listing at sha.
func ListingKey(sha string) CacheKey {
	return CacheKey{Env: ListingMarker, Sha: NormalizeSha(sha)}
}

// IsListing reports whether k addresses a listing rather than an environment.
func (k CacheKey) IsListing() bool { return k.Env == ListingMarker }

// String renders the canonical "env::sha" form.
func (k CacheKey) String() string {
	return fmt.Sprintf("%s::%s", k.Env, k.Sha)
}

// ParseCacheKey parses a "env::sha" string back into a CacheKey.
func ParseCacheKey(s string) (CacheKey, error) {
	idx := strings.LastIndex(s, "::")
	if idx < 0 {
		return CacheKey{}, fmt.Errorf("malformed cache key %q", s)
	}
	return CacheKey{Env: s[:idx], Sha: s[idx+2:]}, nil
}
