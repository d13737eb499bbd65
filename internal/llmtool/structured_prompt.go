package llmtool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PromptField describes a single marker line the model must emit.
type PromptField struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// PromptSection describes a repeated block of marker records introduced by a
// "NAME:" header line.
type PromptSection struct {
	Name        string
	Description string
	Fields      []PromptField
}

// StructuredPromptSpec defines the sections for a structured prompt.
type StructuredPromptSpec struct {
	Purpose      string
	Background   string
	OutputFields []PromptField
	Sections     []PromptSection
	Rules        []string
	OutputFormat string
	Example      string
}

// BuildStructuredPrompt renders spec with input serialized as JSON under
// [INPUT].
func BuildStructuredPrompt(spec StructuredPromptSpec, input any) (string, error) {
	if strings.TrimSpace(spec.Purpose) == "" {
		return "", fmt.Errorf("llmtool: purpose is empty")
	}
	if len(spec.OutputFields) == 0 && len(spec.Sections) == 0 {
		return "", fmt.Errorf("llmtool: output fields are empty")
	}
	inputJSON, err := formatAnyJSON(input)
	if err != nil {
		return "", fmt.Errorf("llmtool: encode input: %w", err)
	}

	var buf bytes.Buffer
	writeSection(&buf, "PURPOSE", spec.Purpose)
	writeSection(&buf, "BACKGROUND", spec.Background)
	writeSection(&buf, "INPUT", inputJSON)
	writeSection(&buf, "OUTPUT", formatOutput(spec.OutputFields, spec.Sections))
	writeSection(&buf, "RULES", formatList(spec.Rules))
	writeSection(&buf, "OUTPUT_FORMAT", spec.OutputFormat)
	writeSection(&buf, "EXAMPLE", spec.Example)
	return strings.TrimSpace(buf.String()) + "\n", nil
}

func formatAnyJSON(v any) (string, error) {
	if v == nil {
		return "null", nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func formatOutput(fields []PromptField, sections []PromptSection) string {
	var buf strings.Builder
	if s := formatFields(fields, ""); s != "" {
		buf.WriteString(s)
		buf.WriteString("\n")
	}
	for _, sec := range sections {
		fmt.Fprintf(&buf, "%s: (section", sec.Name)
		if sec.Description != "" {
			fmt.Fprintf(&buf, "; %s", sec.Description)
		}
		buf.WriteString(")\n")
		buf.WriteString(formatFields(sec.Fields, "  "))
		buf.WriteString("\n")
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatFields(fields []PromptField, indent string) string {
	var buf strings.Builder
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}
		req := "optional"
		if f.Required {
			req = "required"
		}
		if f.Description != "" {
			fmt.Fprintf(&buf, "%s- %s (%s, %s): %s\n", indent, name, f.Type, req, f.Description)
		} else {
			fmt.Fprintf(&buf, "%s- %s (%s, %s)\n", indent, name, f.Type, req)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}
