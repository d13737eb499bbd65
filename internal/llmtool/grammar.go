package llmtool

import (
	"strings"
	"unicode"
)

// Grammar tells ParseMarkers which header lines open a section and which key
// starts a new record inside it. Top-level keys close any open section.
type Grammar struct {
	Fields   []string
	Sections map[string]string // section name -> leading record key
}

// Record is one block of "KEY: value" lines. Repeated keys accumulate.
type Record map[string][]string

// Get returns the first value for key.
func (r Record) Get(key string) string {
	if v := r[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (r Record) All(key string) []string { return r[key] }

func (r Record) Has(key string) bool { return len(r[key]) > 0 }

// Document is the result of parsing one response.
type Document struct {
	Fields   Record
	Sections map[string][]Record
}

func (d Document) Field(key string) string { return d.Fields.Get(key) }

func (d Document) Records(section string) []Record { return d.Sections[section] }

// Empty reports whether nothing recognizable was found.
func (d Document) Empty() bool {
	if len(d.Fields) > 0 {
		return false
	}
	for _, recs := range d.Sections {
		if len(recs) > 0 {
			return false
		}
	}
	return true
}

// ParseMarkers reads the marker grammar out of free text. Bullets, numbering,
// markdown emphasis and code fences are stripped; lines that are not
// recognizable markers are ignored. It never fails.
func ParseMarkers(text string, g Grammar) Document {
	doc := Document{Fields: Record{}, Sections: map[string][]Record{}}
	top := make(map[string]bool, len(g.Fields))
	for _, f := range g.Fields {
		top[f] = true
	}

	var section string
	var cur Record
	flush := func() {
		if section != "" && len(cur) > 0 {
			doc.Sections[section] = append(doc.Sections[section], cur)
		}
		cur = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := cleanLine(raw)
		if line == "" {
			continue
		}
		if name, ok := sectionHeader(line, g); ok {
			flush()
			section = name
			continue
		}
		key, val, ok := splitMarker(line)
		if !ok {
			continue
		}
		if top[key] {
			flush()
			section = ""
			if !doc.Fields.Has(key) {
				doc.Fields[key] = []string{val}
			}
			continue
		}
		if section == "" {
			continue
		}
		if key == g.Sections[section] && cur.Has(key) {
			flush()
		}
		if cur == nil {
			cur = Record{}
		}
		cur[key] = append(cur[key], val)
	}
	flush()
	return doc
}

func cleanLine(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		return ""
	}
	s = strings.TrimLeft(s, "-*•> \t")
	s = stripNumbering(s)
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	return strings.TrimSpace(s)
}

// stripNumbering drops list prefixes like "1. " or "2) ".
func stripNumbering(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(s) || (s[i] != '.' && s[i] != ')') {
		return s
	}
	return strings.TrimSpace(s[i+1:])
}

func sectionHeader(line string, g Grammar) (string, bool) {
	// "AGENTS: foo" is a value, not a header.
	if i := strings.Index(line, ":"); i >= 0 && strings.TrimSpace(line[i+1:]) != "" {
		return "", false
	}
	s := strings.TrimLeft(line, "# ")
	s = strings.TrimSpace(strings.Trim(s, "[]"))
	s = strings.TrimSpace(strings.TrimSuffix(s, ":"))
	name := normalizeKey(s)
	if _, ok := g.Sections[name]; !ok {
		return "", false
	}
	return name, true
}

func splitMarker(line string) (string, string, bool) {
	i := strings.Index(line, ":")
	if i <= 0 {
		return "", "", false
	}
	key := normalizeKey(line[:i])
	if key == "" {
		return "", "", false
	}
	val := strings.Trim(strings.TrimSpace(line[i+1:]), "\"`")
	return key, strings.TrimSpace(val), true
}

// normalizeKey upper-cases s and maps spaces and dashes to '_'. It returns ""
// for anything that does not look like a marker key.
func normalizeKey(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 40 {
		return ""
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(unicode.ToUpper(r))
		case r == ' ' || r == '-':
			b.WriteByte('_')
		default:
			return ""
		}
	}
	return b.String()
}

// SplitList splits a comma or semicolon separated value, trimming items and
// dropping empties and surrounding brackets.
func SplitList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.Trim(strings.TrimSpace(p), "\"'`"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
