package artifact

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Form distinguishes a definition occurrence from a reference occurrence.
type Form string

const (
	FormDefinition Form = "definition"
	FormReference  Form = "reference"
)

// Presentation distinguishes plain inline identifiers from
// checkbox-with-task-and-priority identifiers.
type Presentation string

const (
	PresentationPlain    Presentation = "plain"
	PresentationCheckbox Presentation = "checkbox"
)

// Occurrence is one appearance of an identifier in a document, anchored to
// the nearest enclosing heading path.
type Occurrence struct {
	ID           Identifier   `json:"id"`
	Form         Form         `json:"form"`
	Presentation Presentation `json:"presentation"`
	// Checked is the checkbox glyph state; meaningful only for checkbox
	// presentation.
	Checked bool `json:"checked,omitempty"`
	// Priority is the tier tag (p1..p3) of a checkbox occurrence; empty
	// when absent.
	Priority string `json:"priority,omitempty"`

	Path        string   `json:"path"`
	Artifact    Kind     `json:"artifact"`
	HeadingPath []string `json:"heading_path,omitempty"`
	Line        int      `json:"line"`
}

// UnderHeading reports whether the occurrence falls under a heading with
// the given text (case-insensitive), at any nesting depth.
func (o Occurrence) UnderHeading(text string) bool {
	for _, h := range o.HeadingPath {
		if strings.EqualFold(h, text) {
			return true
		}
	}
	return false
}

// Heading is one entry of a document's ordered heading tree.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Line  int    `json:"line"`
}

// FrontMatter is the YAML header of an ADR document.
type FrontMatter struct {
	Status string `yaml:"status"`
	Date   string `yaml:"date"`
}

// Document is one parsed artifact file. It is constructed fresh per
// validation run and immutable once built; corrections require re-parsing.
type Document struct {
	Path        string
	Kind        Kind
	Headings    []Heading
	FrontMatter *FrontMatter
	Occurrences []Occurrence
}

// Title returns the text of the first H1 heading, or "".
func (d *Document) Title() string {
	for _, h := range d.Headings {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}

// DefinitionsOf returns the definition occurrences of the given ID kind,
// in document order.
func (d *Document) DefinitionsOf(kind IDKind) []Occurrence {
	var defs []Occurrence
	for _, o := range d.Occurrences {
		if o.Form == FormDefinition && o.ID.Kind == kind {
			defs = append(defs, o)
		}
	}
	return defs
}

// splitFrontMatter separates a leading YAML front-matter block from the
// body. Returns the raw YAML (without delimiters), the body, and whether a
// front-matter block was present. The body keeps its original line offset
// via the returned line count of the consumed header.
func splitFrontMatter(content string) (yamlSrc, body string, headerLines int, ok bool) {
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return "", content, 0, false
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r") == "---" {
			yamlSrc = strings.Join(lines[1:i], "\n")
			body = strings.Join(lines[i+1:], "\n")
			return yamlSrc, body, i + 1, true
		}
	}
	return "", content, 0, false
}

// parseFrontMatter decodes an ADR front-matter block.
func parseFrontMatter(yamlSrc string) (*FrontMatter, error) {
	var fm FrontMatter
	if err := yaml.Unmarshal([]byte(yamlSrc), &fm); err != nil {
		return nil, fmt.Errorf("parse front-matter: %w", err)
	}
	return &fm, nil
}
