// Package configloader reads and merges JSON configuration files from a
// working tree: a type walk collects EnvironmentType overlays keyed by
// file stem, an environment walk collects Environment documents matching
// a caller-supplied filter, and each is merged as
// global ⊕ env-type ⊕ own config_data.
//
// File-shape discrimination mirrors the original implementation's
// untagged union: a document is an Environment when it carries an
// "Environment" key (its value is the environment's name); it is an
// EnvironmentType when it carries an "EnvironmentType" key instead. A
// document with neither key is ignored.
package configloader

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/configsrv/hoganserver/internal/configmodel"
)

type rawDoc struct {
	Environment     *string         `json:"Environment"`
	EnvironmentType *string         `json:"EnvironmentType"`
	ConfigData      json.RawMessage `json:"ConfigData"`
}

// Load scans dir for EnvironmentType overlays, then for Environment files
// matching filter, merging global ⊕ env-type ⊕ own for each match.
func Load(dir string, filter *regexp.Regexp) ([]configmodel.Environment, error) {
	types, err := loadTypes(dir)
	if err != nil {
		return nil, err
	}

	paths, err := listJSONFiles(dir)
	if err != nil {
		return nil, err
	}

	global := types[configmodel.GlobalTypeName]

	var out []configmodel.Environment
	for _, path := range paths {
		name := filepath.Base(path)
		if !filter.MatchString(name) {
			continue
		}

		doc, err := readRawDoc(path)
		if err != nil {
			return nil, err
		}
		if doc.Environment == nil {
			// Not an Environment-shaped document — silently skipped,
			// matching the original's filter_map over a failed variant
			// match.
			continue
		}

		var envType string
		var typeOverlay json.RawMessage
		if doc.EnvironmentType != nil {
			envType = *doc.EnvironmentType
			typeOverlay = types[envType]
		}

		merged, err := MergeAll(global, typeOverlay, doc.ConfigData)
		if err != nil {
			return nil, fmt.Errorf("configloader: merge %s: %w", name, err)
		}

		out = append(out, configmodel.Environment{
			Name:       *doc.Environment,
			EnvType:    envType,
			ConfigData: merged,
		})
	}
	return out, nil
}

// loadTypes performs the type walk: every JSON file in dir is a
// candidate EnvironmentType, kept when it carries an "EnvironmentType"
// key (without an "Environment" key), keyed by the file's own stem — the
// field's value in the file is discarded in favor of the stem, matching
// the original's environment_types() which overwrites it after parsing.
func loadTypes(dir string) (map[string]json.RawMessage, error) {
	paths, err := listJSONFiles(dir)
	if err != nil {
		return nil, err
	}

	types := make(map[string]json.RawMessage)
	for _, path := range paths {
		doc, err := readRawDoc(path)
		if err != nil {
			return nil, err
		}
		if doc.Environment != nil || doc.EnvironmentType == nil {
			continue
		}
		name := filepath.Base(path)
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		types[stem] = doc.ConfigData
	}
	return types, nil
}

// listJSONFiles recursively collects every ".json" file under dir,
// mirroring the original implementation's recursive find_file_paths
// rather than a single-level directory listing.
func listJSONFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("configloader: walk dir %s: %w", dir, err)
	}
	return paths, nil
}

func readRawDoc(path string) (rawDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rawDoc{}, fmt.Errorf("configloader: read %s: %w", path, err)
	}
	var rd rawDoc
	if err := json.Unmarshal(data, &rd); err != nil {
		return rawDoc{}, fmt.Errorf("configloader: parse %s: %w", path, err)
	}
	return rd, nil
}

// EnvironmentFilterPattern builds the default per-environment filename
// regex, case-insensitive, substituting env into "^config\.<env>\.json$".
func EnvironmentFilterPattern(env string) string {
	return fmt.Sprintf(`(?i)^config\.%s\.json$`, regexp.QuoteMeta(env))
}

// CompileFilter compiles pattern, falling back to fallback (e.g. the
// all-environments regex) if pattern is empty or fails to compile.
func CompileFilter(pattern, fallback string) *regexp.Regexp {
	if pattern == "" {
		return regexp.MustCompile(fallback)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = regexp.MustCompile(fallback)
	}
	return re
}

// ToListing reduces a slice of Environments to their descriptions.
func ToListing(envs []configmodel.Environment) configmodel.Listing {
	out := make(configmodel.Listing, 0, len(envs))
	for _, e := range envs {
		out = append(out, configmodel.EnvironmentDescription{Name: e.Name, Type: e.EnvType})
	}
	return out
}
