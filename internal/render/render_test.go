package render

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const fixtureConfig = `{
	"Region": {"Key": "TEST"},
	"UpperCaseString": "UPPERCASE",
	"SlashService": {"endpoint": "https://slash.com/"},
	"NonSlashService": {"endpoint": "https://nonslash.com", "notAnEndpoint": "no-protocol.no-slash.com"},
	"PathService": {"endpoint": "https://path.com/path/extra", "trailingSlash": "https://trailing-path.com/path/extra/"},
	"Memcache": {"Servers": [
		{"Endpoint": "192.168.1.100", "Port": 1122},
		{"Endpoint": "192.168.1.101", "Port": 1122},
		{"Endpoint": "192.168.1.102", "Port": 1122}
	]},
	"DB": {"Endpoint": "host-name\\TEST\""}
}`

func renderFixture(t *testing.T, template, want string) {
	t.Helper()
	got, err := Render(template, []byte(fixtureConfig))
	require.NoError(t, err, "Render(%q)", template)
	require.Equal(t, want, got, "Render(%q)", template)
}

func TestEqualHelper(t *testing.T) {
	renderFixture(t, `{{#eq Region.Key "TEST"}}Foo{{else}}Bar{{/eq}}`, "Foo")
	renderFixture(t, `{{#eq Region.Key "NOPE"}}Foo{{else}}Bar{{/eq}}`, "Bar")
}

func TestOrHelper(t *testing.T) {
	renderFixture(t, `{{#or (eq Region.Key "TEST") (eq Region.Key "TEST2")}}Foo{{else}}Bar{{/or}}`, "Foo")
	renderFixture(t, `{{#or (eq Region.Key "NO") (eq Region.Key "NOPE")}}Foo{{else}}Bar{{/or}}`, "Bar")
}

func TestLowercaseHelper(t *testing.T) {
	renderFixture(t, "{{lowercase UpperCaseString}}", "uppercase")
}

func TestCommaListHelper(t *testing.T) {
	renderFixture(t,
		"{{#commaList Memcache.Servers}}{{Endpoint}}:{{Port}}{{/commaList}}",
		"192.168.1.100:1122,192.168.1.101:1122,192.168.1.102:1122")
}

func TestUrlAddSlashHelper(t *testing.T) {
	renderFixture(t, "{{urlAddSlash NonSlashService.endpoint}}", "https://nonslash.com/")
	renderFixture(t, "{{urlAddSlash NonSlashService.notAnEndpoint}}", "no-protocol.no-slash.com")
}

func TestUrlRmSlashHelper(t *testing.T) {
	renderFixture(t, "{{urlRmSlash SlashService.endpoint}}", "https://slash.com")
}

func TestUrlRmPathHelper(t *testing.T) {
	renderFixture(t, "{{urlRmPath PathService.endpoint}}", "https://path.com/path")
}

func TestYamlStringHelper(t *testing.T) {
	renderFixture(t, "{{yamlString DB.Endpoint}}", `host-name\\TEST\"`)
}

func TestRenderInvalidTemplateSyntax(t *testing.T) {
	_, err := Render("{{#eq foo}}", nil)
	require.Error(t, err, "expected parse error for malformed template")
}
