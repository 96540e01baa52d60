package render

import (
	"net/url"
	"strings"

	"github.com/mbleigh/raymond"
)

func registerHelpers() {
	raymond.RegisterHelper("eq", equalHelper)
	raymond.RegisterHelper("equal", equalHelper)
	raymond.RegisterHelper("or", orHelper)
	raymond.RegisterHelper("lowercase", lowercaseHelper)
	raymond.RegisterHelper("commaList", commaListHelper)
	raymond.RegisterHelper("comma-list", commaListHelper)
	raymond.RegisterHelper("urlAddSlash", urlAddSlashHelper)
	raymond.RegisterHelper("url-add-slash", urlAddSlashHelper)
	raymond.RegisterHelper("urlRmSlash", urlRmSlashHelper)
	raymond.RegisterHelper("url-rm-slash", urlRmSlashHelper)
	raymond.RegisterHelper("urlRmPath", urlRmPathHelper)
	raymond.RegisterHelper("url-rm-path", urlRmPathHelper)
	raymond.RegisterHelper("yamlString", yamlStringHelper)
	raymond.RegisterHelper("yaml-string", yamlStringHelper)
}

// equalHelper implements {{#eq a b}}...{{else}}...{{/eq}} and the inline
// form {{eq a b}}.
func equalHelper(left, right interface{}, options *raymond.Options) interface{} {
	if left == right {
		return options.Fn()
	}
	return options.Inverse()
}

// orHelper implements {{#or a b c...}}, true if any argument is truthy —
// matching the original's "non-empty string" truthiness check rather than
// Go's zero-value notion.
func orHelper(params ...interface{}) interface{} {
	if len(params) == 0 {
		return ""
	}
	options, ok := params[len(params)-1].(*raymond.Options)
	if !ok {
		return ""
	}
	args := params[:len(params)-1]

	truthy := false
	for _, a := range args {
		if s, ok := a.(string); ok {
			if s != "" {
				truthy = true
				break
			}
			continue
		}
		if a != nil {
			truthy = true
			break
		}
	}

	if truthy {
		return options.Fn()
	}
	return options.Inverse()
}

func lowercaseHelper(value interface{}) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.ToLower(s)
}

// commaListHelper renders its block once per array element, using each
// element as the new context, and joins the results with commas.
// Usage: {{#commaList Memcache.Servers}}{{Endpoint}}:{{Port}}{{/commaList}}
func commaListHelper(value interface{}, options *raymond.Options) string {
	items, ok := value.([]interface{})
	if !ok {
		return ""
	}
	rendered := make([]string, 0, len(items))
	for _, item := range items {
		rendered = append(rendered, options.FnWith(item))
	}
	return strings.Join(rendered, ",")
}

func urlAddSlashHelper(value interface{}) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return s
	}
	if !strings.HasSuffix(s, "/") {
		return s + "/"
	}
	return s
}

func urlRmSlashHelper(value interface{}) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSuffix(s, "/")
}

// urlRmPathHelper drops the last path segment of a URL, leaving scheme,
// host and any remaining path intact.
func urlRmPathHelper(value interface{}) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	trimmed := strings.TrimSuffix(s, "/")
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" {
		return s
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) > 0 {
		segments = segments[:len(segments)-1]
	}
	u.Path = "/" + strings.Join(segments, "/")
	result := strings.TrimSuffix(u.String(), "/")
	return result
}

// yamlStringHelper escapes a string for safe embedding inside a YAML (or
// JSON) double-quoted scalar, without the surrounding quotes.
func yamlStringHelper(value interface{}) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
