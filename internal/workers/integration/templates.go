package integration

import (
	"bytes"
	"embed"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"crewbuilder/internal/artifact"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var skeletonTmpl = template.Must(template.ParseFS(templateFS, "templates/integration.py.tmpl"))

var pythonPackages = []struct{ match, pkg string }{
	{"openai", "openai"},
	{"anthropic", "anthropic"},
	{"groq", "groq"},
	{"serper", "google-search-results"},
	{"tavily", "tavily-python"},
	{"sendgrid", "sendgrid"},
	{"slack", "slack-sdk"},
	{"airtable", "pyairtable"},
	{"google sheets", "google-api-python-client"},
	{"google analytics", "google-analytics-data"},
	{"aws s3", "boto3"},
}

// PythonPackage returns the client package for a service, "requests" when
// none is known.
func PythonPackage(service string) string {
	name := strings.ToLower(service)
	for _, p := range pythonPackages {
		if strings.Contains(name, p.match) {
			return p.pkg
		}
	}
	return "requests"
}

// serviceSlug upper-cases name with non-alphanumerics as '_', dropping a
// trailing "API" word: "Tavily Search API" -> "TAVILY_SEARCH".
func serviceSlug(name string) string {
	words := strings.FieldsFunc(strings.ToUpper(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) > 1 && words[len(words)-1] == "API" {
		words = words[:len(words)-1]
	}
	return strings.Join(words, "_")
}

func EnvVarName(service string) string { return serviceSlug(service) + "_API_KEY" }

func EnvironmentVariables(services []artifact.APIRecommendation) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range services {
		if !s.APIKeyRequired {
			continue
		}
		v := EnvVarName(s.Name)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// ConfigurationTemplates renders the .env template, the package list and one
// integration skeleton per service.
func ConfigurationTemplates(services []artifact.APIRecommendation) map[string]string {
	out := map[string]string{}

	var env strings.Builder
	env.WriteString("# API configuration\n# Copy to .env and fill in the values\n\n")
	for _, v := range EnvironmentVariables(services) {
		env.WriteString(v + "=your_" + strings.ToLower(v) + "_here\n")
	}
	out[".env.template"] = env.String()

	seen := map[string]bool{}
	var pkgs []string
	for _, s := range services {
		if p := PythonPackage(s.Name); !seen[p] {
			seen[p] = true
			pkgs = append(pkgs, p)
		}
	}
	out["requirements_additions.txt"] = strings.Join(pkgs, "\n") + "\n"

	for _, s := range services {
		file := strings.ToLower(serviceSlug(s.Name)) + "_integration.py"
		if _, ok := out[file]; !ok {
			out[file] = renderSkeleton(s)
		}
	}
	return out
}

type skeletonData struct {
	artifact.APIRecommendation
	EnvVar      string
	EnvVarLower string
	ClassName   string
}

func renderSkeleton(s artifact.APIRecommendation) string {
	d := skeletonData{APIRecommendation: s, ClassName: className(s.Name)}
	if s.APIKeyRequired {
		d.EnvVar = EnvVarName(s.Name)
		d.EnvVarLower = strings.ToLower(d.EnvVar)
	}
	var buf bytes.Buffer
	if err := skeletonTmpl.Execute(&buf, d); err != nil {
		// Template and data are both fixed shapes; an error here is a bug.
		panic(err)
	}
	return buf.String()
}

func className(name string) string {
	var b strings.Builder
	for _, w := range strings.FieldsFunc(name, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
		b.WriteString(upperFirst(w))
	}
	b.WriteString("Integration")
	return b.String()
}

func upperFirst(w string) string {
	r, n := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[n:]
}
