// Package render wraps the Handlebars-compatible template engine used to
// turn a merged environment's config_data into the final rendered
// artifact, restoring the helper set (eq, or, lowercase, commaList,
// urlAddSlash, urlRmSlash, urlRmPath, yamlString) that
// original_source/src/transform shipped.
package render

import (
	"encoding/json"
	"sync"

	"github.com/mbleigh/raymond"

	"github.com/configsrv/hoganserver/internal/apperr"
)

var registerOnce sync.Once

// Render parses template against the given environment config_data
// (already merged global ⊕ type ⊕ own) and executes it, returning the
// rendered text.
func Render(template string, configData json.RawMessage) (string, error) {
	registerOnce.Do(registerHelpers)

	var ctx interface{}
	if len(configData) > 0 {
		if err := json.Unmarshal(configData, &ctx); err != nil {
			return "", &apperr.InvalidConfiguration{Message: "config_data is not valid JSON: " + err.Error()}
		}
	}

	tpl, err := raymond.Parse(template)
	if err != nil {
		return "", &apperr.InvalidTemplate{Message: err.Error()}
	}

	out, err := tpl.Exec(ctx)
	if err != nil {
		return "", &apperr.InvalidTemplate{Message: err.Error()}
	}
	return out, nil
}
