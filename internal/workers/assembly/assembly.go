package assembly

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"crewbuilder/internal/artifact"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("assembly").Funcs(template.FuncMap{
	"py":     strconv.Quote,
	"pybool": pyBool,
	"join":   strings.Join,
	"inc":    func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/*.tmpl"))

// Bundle file paths.
const (
	MainPath          = "crew/main.py"
	RequirementsPath  = "crew/requirements.txt"
	EnvTemplatePath   = "crew/.env.template"
	ReadmePath        = "docs/README.md"
	ArchitecturePath  = "architecture.json"
	PlanPath          = "integration_plan.json"
	SpecificationPath = "specification.json"
	integrationsDir   = "integrations/"
)

var baseRequirements = []string{"crewai", "python-dotenv"}

type view struct {
	RunID       string
	Requirement artifact.BusinessRequirement
	Spec        artifact.TechnicalSpecification
	Arch        artifact.CrewArchitecture
	Plan        artifact.IntegrationPlan
}

func (v view) AgentNames() []string {
	out := make([]string, len(v.Arch.Agents))
	for i, a := range v.Arch.Agents {
		out[i] = a.Name
	}
	return out
}

// Assemble renders the deliverable files for a finished run. The architecture
// is validated again since the generated code references it by name.
func Assemble(runID string, req artifact.BusinessRequirement, spec artifact.TechnicalSpecification,
	arch artifact.CrewArchitecture, plan artifact.IntegrationPlan) (artifact.Bundle, error) {
	if runID == "" {
		return artifact.Bundle{}, errors.New("assembly: empty run id")
	}
	if err := arch.Validate(); err != nil {
		return artifact.Bundle{}, err
	}
	v := view{RunID: runID, Requirement: req, Spec: spec, Arch: arch, Plan: plan}
	files := map[string]string{}

	for path, name := range map[string]string{MainPath: "main.py.tmpl", ReadmePath: "README.md.tmpl"} {
		out, err := render(name, v)
		if err != nil {
			return artifact.Bundle{}, err
		}
		files[path] = out
	}
	files[RequirementsPath] = requirementsTxt(arch, plan)
	files[EnvTemplatePath] = envTemplate(plan)
	for name, body := range plan.ConfigurationTemplates {
		files[integrationsDir+name] = body
	}
	for path, doc := range map[string]any{ArchitecturePath: arch, PlanPath: plan, SpecificationPath: spec} {
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return artifact.Bundle{}, fmt.Errorf("assembly: encode %s: %w", path, err)
		}
		files[path] = string(b) + "\n"
	}

	return artifact.Bundle{
		RunID:         runID,
		Requirement:   req,
		Specification: spec,
		Architecture:  arch,
		Plan:          plan,
		Files:         files,
	}, nil
}

func render(name string, v view) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, v); err != nil {
		return "", fmt.Errorf("assembly: render %s: %w", name, err)
	}
	return buf.String(), nil
}

// requirementsTxt merges the crew runtime packages with the architecture
// dependencies and the integration packages, first occurrence wins.
func requirementsTxt(arch artifact.CrewArchitecture, plan artifact.IntegrationPlan) string {
	pkgs := append([]string(nil), baseRequirements...)
	pkgs = append(pkgs, arch.Dependencies...)
	pkgs = append(pkgs, strings.Split(plan.ConfigurationTemplates["requirements_additions.txt"], "\n")...)
	seen := map[string]bool{}
	var b strings.Builder
	for _, p := range pkgs {
		p = strings.TrimSpace(p)
		if p == "" || seen[strings.ToLower(p)] {
			continue
		}
		seen[strings.ToLower(p)] = true
		b.WriteString(p + "\n")
	}
	return b.String()
}

func envTemplate(plan artifact.IntegrationPlan) string {
	if t, ok := plan.ConfigurationTemplates[".env.template"]; ok {
		return t
	}
	var b strings.Builder
	b.WriteString("# API configuration\n")
	for _, v := range plan.EnvironmentVariables {
		b.WriteString(v + "=\n")
	}
	return b.String()
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
