// Package rules holds the declarative rule registry: per-artifact-kind
// heading requirements, identifier policies, and the cross-artifact
// coverage table. The registry is loaded once per run and read-only
// thereafter; the same RuleSet instance is shared by every document of a
// kind.
package rules

import (
	"fmt"
	"regexp"

	"github.com/cypilot/cypilot/artifact"
)

// Coverage is the policy level of a directed coverage rule.
type Coverage string

const (
	CoverageRequired   Coverage = "required"
	CoverageOptional   Coverage = "optional"
	CoverageProhibited Coverage = "prohibited"
)

// Policy is one of the orthogonal task/priority applicability axes of an
// identifier kind.
type Policy string

const (
	PolicyRequired   Policy = "required"
	PolicyProhibited Policy = "prohibited"
	PolicyAllowed    Policy = "allowed"
)

// HeadingRule is one entry of a RuleSet's ordered heading list.
type HeadingRule struct {
	// Title is the literal heading text. Empty for repeatable headings,
	// which match any free-form title at the given level and parent.
	Title string
	Level int
	// Parent constrains nesting: when non-empty the heading must appear
	// under a heading with this text.
	Parent     string
	Required   bool
	Repeatable bool
}

// Name returns a human-readable name for diagnostics.
func (h HeadingRule) Name() string {
	prefix := ""
	for i := 0; i < h.Level; i++ {
		prefix += "#"
	}
	if h.Repeatable {
		return fmt.Sprintf("%s {title}", prefix)
	}
	return fmt.Sprintf("%s %s", prefix, h.Title)
}

// IDRule is the policy for one identifier kind within an artifact kind.
type IDRule struct {
	Kind artifact.IDKind
	// Required demands at least one definition of this kind per document.
	Required bool
	// Unique demands exactly one definition of this kind per document.
	Unique bool
	// Checkbox selects the checkbox definition encoding over the plain one.
	Checkbox bool
	// Task and Priority are independent applicability axes; they combine
	// orthogonally across kinds.
	Task     Policy
	Priority Policy
	// Heading anchors definitions of this kind under a specific heading.
	// Empty means anywhere in the document.
	Heading string
	// Traceable marks the kind as a completion-cascade leaf driven by
	// code trace markers.
	Traceable bool
}

// CoverageRule is one directed edge of the coverage table.
type CoverageRule struct {
	SourceKind     artifact.IDKind
	SourceArtifact artifact.Kind
	TargetArtifact artifact.Kind
	Level          Coverage
	// TargetHeading anchors the covering reference under a heading in the
	// target artifact. Empty means anywhere; ignored for prohibited rules,
	// which forbid references regardless of heading.
	TargetHeading string
}

// RuleSet is the full constraint set for one artifact kind.
type RuleSet struct {
	Artifact artifact.Kind
	Headings []HeadingRule
	IDs      []IDRule
	// FrontMatter lists required front-matter keys (ADR: status, date).
	FrontMatter []string
}

// IDRuleFor returns the policy for an identifier kind, if declared.
func (rs *RuleSet) IDRuleFor(kind artifact.IDKind) (IDRule, bool) {
	for _, r := range rs.IDs {
		if r.Kind == kind {
			return r, true
		}
	}
	return IDRule{}, false
}

// Registry maps artifact kinds to their RuleSets and holds the coverage
// table. Immutable after load; pass it explicitly into validators.
type Registry struct {
	sets     map[artifact.Kind]*RuleSet
	coverage []CoverageRule
}

// NewRegistry builds a registry from rule sets and a coverage table.
// It returns an error for any structural defect in the rules themselves;
// a broken registry is the one fatal condition of the engine.
func NewRegistry(sets []*RuleSet, coverage []CoverageRule) (*Registry, error) {
	r := &Registry{sets: make(map[artifact.Kind]*RuleSet, len(sets)), coverage: coverage}
	for _, rs := range sets {
		if !rs.Artifact.Valid() {
			return nil, fmt.Errorf("ruleset for unknown artifact kind %q", rs.Artifact)
		}
		if _, dup := r.sets[rs.Artifact]; dup {
			return nil, fmt.Errorf("duplicate ruleset for artifact kind %q", rs.Artifact)
		}
		for _, h := range rs.Headings {
			if h.Level < 1 || h.Level > 6 {
				return nil, fmt.Errorf("%s: heading %q has invalid level %d", rs.Artifact, h.Title, h.Level)
			}
			if !h.Repeatable && h.Title == "" {
				return nil, fmt.Errorf("%s: non-repeatable heading rule with empty title", rs.Artifact)
			}
		}
		for _, id := range rs.IDs {
			if !id.Kind.Valid() {
				return nil, fmt.Errorf("%s: unknown identifier kind %q", rs.Artifact, id.Kind)
			}
			if err := validPolicy(id.Task); err != nil {
				return nil, fmt.Errorf("%s/%s task policy: %w", rs.Artifact, id.Kind, err)
			}
			if err := validPolicy(id.Priority); err != nil {
				return nil, fmt.Errorf("%s/%s priority policy: %w", rs.Artifact, id.Kind, err)
			}
		}
		r.sets[rs.Artifact] = rs
	}
	for _, c := range coverage {
		if !c.SourceKind.Valid() {
			return nil, fmt.Errorf("coverage rule with unknown source kind %q", c.SourceKind)
		}
		if !c.SourceArtifact.Valid() || !c.TargetArtifact.Valid() {
			return nil, fmt.Errorf("coverage rule %s: unknown artifact kind", c.SourceKind)
		}
		switch c.Level {
		case CoverageRequired, CoverageOptional, CoverageProhibited:
		default:
			return nil, fmt.Errorf("coverage rule %s: unknown level %q", c.SourceKind, c.Level)
		}
	}
	return r, nil
}

func validPolicy(p Policy) error {
	switch p {
	case PolicyRequired, PolicyProhibited, PolicyAllowed:
		return nil
	}
	return fmt.Errorf("unknown policy %q", p)
}

// For returns the RuleSet for an artifact kind.
func (r *Registry) For(kind artifact.Kind) (*RuleSet, bool) {
	rs, ok := r.sets[kind]
	return rs, ok
}

// Coverage returns the coverage table.
func (r *Registry) Coverage() []CoverageRule {
	return r.coverage
}

// priorityTier validates the priority tag of a checkbox occurrence.
var priorityTier = regexp.MustCompile(`^p[1-3]$`)

// ValidPriority reports whether tag is an accepted priority tier.
func ValidPriority(tag string) bool {
	return priorityTier.MatchString(tag)
}
