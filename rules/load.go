package rules

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cypilot/cypilot/artifact"
)

// The wire shape of a constraints payload. Field names follow the
// constraints.json collaborator contract.

type payload struct {
	Artifacts []artifactPayload `json:"artifacts"`
	Coverage  []coveragePayload `json:"coverage"`
}

type artifactPayload struct {
	Kind        string           `json:"kind"`
	Headings    []headingPayload `json:"headings"`
	IDs         []idPayload      `json:"ids"`
	FrontMatter []string         `json:"front_matter,omitempty"`
}

type headingPayload struct {
	Title      string `json:"title,omitempty"`
	Level      int    `json:"level"`
	Parent     string `json:"parent,omitempty"`
	Required   bool   `json:"required,omitempty"`
	Repeatable bool   `json:"repeatable,omitempty"`
}

type idPayload struct {
	Kind      string `json:"kind"`
	Required  bool   `json:"required,omitempty"`
	Unique    bool   `json:"unique,omitempty"`
	Checkbox  bool   `json:"checkbox,omitempty"`
	Task      string `json:"task"`
	Priority  string `json:"priority"`
	Heading   string `json:"heading,omitempty"`
	Traceable bool   `json:"traceable,omitempty"`
}

type coveragePayload struct {
	SourceKind     string `json:"source_kind"`
	SourceArtifact string `json:"source_artifact"`
	TargetArtifact string `json:"target_artifact"`
	Level          string `json:"level"`
	TargetHeading  string `json:"target_heading,omitempty"`
}

// Load reads a constraints payload and builds the registry. A failure here
// is fatal to the run: no meaningful validation is possible without rules.
func Load(r io.Reader) (*Registry, error) {
	var p payload
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse constraints: %w", err)
	}

	sets := make([]*RuleSet, 0, len(p.Artifacts))
	for _, a := range p.Artifacts {
		rs := &RuleSet{
			Artifact:    artifact.Kind(a.Kind),
			FrontMatter: a.FrontMatter,
		}
		for _, h := range a.Headings {
			rs.Headings = append(rs.Headings, HeadingRule{
				Title:      h.Title,
				Level:      h.Level,
				Parent:     h.Parent,
				Required:   h.Required,
				Repeatable: h.Repeatable,
			})
		}
		for _, id := range a.IDs {
			rs.IDs = append(rs.IDs, IDRule{
				Kind:      artifact.IDKind(id.Kind),
				Required:  id.Required,
				Unique:    id.Unique,
				Checkbox:  id.Checkbox,
				Task:      Policy(id.Task),
				Priority:  Policy(id.Priority),
				Heading:   id.Heading,
				Traceable: id.Traceable,
			})
		}
		sets = append(sets, rs)
	}

	coverage := make([]CoverageRule, 0, len(p.Coverage))
	for _, c := range p.Coverage {
		coverage = append(coverage, CoverageRule{
			SourceKind:     artifact.IDKind(c.SourceKind),
			SourceArtifact: artifact.Kind(c.SourceArtifact),
			TargetArtifact: artifact.Kind(c.TargetArtifact),
			Level:          Coverage(c.Level),
			TargetHeading:  c.TargetHeading,
		})
	}

	reg, err := NewRegistry(sets, coverage)
	if err != nil {
		return nil, fmt.Errorf("invalid constraints: %w", err)
	}
	return reg, nil
}

// LoadFile loads a constraints payload from disk.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open constraints: %w", err)
	}
	defer f.Close()
	return Load(f)
}
