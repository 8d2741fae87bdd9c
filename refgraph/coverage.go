package refgraph

import (
	"fmt"

	"github.com/cypilot/cypilot/report"
	"github.com/cypilot/cypilot/rules"
)

// CheckCoverage walks the graph against the registry's coverage table.
// Each rule is a one-way check over whatever graph currently exists: a
// required rule whose target artifact kind is absent is recorded as a
// chain gap, never as a violation, so partially-authored chains are not
// reported as inconsistent prematurely.
func CheckCoverage(g *Graph, reg *rules.Registry) ([]report.Diagnostic, []report.ChainGap) {
	var diags []report.Diagnostic
	var gaps []report.ChainGap

	for _, rule := range reg.Coverage() {
		switch rule.Level {
		case rules.CoverageRequired:
			if !g.HasArtifactKind(rule.TargetArtifact) {
				if len(g.DefinitionsOf(rule.SourceKind, rule.SourceArtifact)) > 0 {
					gaps = append(gaps, report.ChainGap{
						SourceKind:     string(rule.SourceKind),
						SourceArtifact: string(rule.SourceArtifact),
						TargetArtifact: string(rule.TargetArtifact),
					})
				}
				continue
			}
			for _, node := range g.DefinitionsOf(rule.SourceKind, rule.SourceArtifact) {
				if covered(node, rule) {
					continue
				}
				diags = append(diags, report.Diagnostic{
					Kind:     report.KindCoverage,
					Severity: report.SeverityError,
					Path:     node.Definition.Path,
					Line:     node.Definition.Line,
					Heading:  lastOf(node.Definition.HeadingPath),
					Rule:     "coverage/missing",
					Message:  coverageMessage(node.ID.Raw, rule),
				})
			}

		case rules.CoverageProhibited:
			for _, node := range g.DefinitionsOf(rule.SourceKind, rule.SourceArtifact) {
				for _, ref := range node.References {
					if ref.Artifact != rule.TargetArtifact {
						continue
					}
					diags = append(diags, report.Diagnostic{
						Kind:     report.KindCoverage,
						Severity: report.SeverityError,
						Path:     ref.Path,
						Line:     ref.Line,
						Heading:  lastOf(ref.HeadingPath),
						Rule:     "coverage/prohibited",
						Message: fmt.Sprintf("%s identifiers must not be referenced from %s documents (%s)",
							rule.SourceKind, rule.TargetArtifact, node.ID.Raw),
					})
				}
			}

		case rules.CoverageOptional:
			// Informational only; no diagnostic either way.
		}
	}

	return diags, gaps
}

// covered reports whether the node is referenced at least once from a
// document of the rule's target kind, anchored under the target heading
// when one is set.
func covered(node *Node, rule rules.CoverageRule) bool {
	for _, ref := range node.References {
		if ref.Artifact != rule.TargetArtifact {
			continue
		}
		if rule.TargetHeading != "" && !ref.UnderHeading(rule.TargetHeading) {
			continue
		}
		return true
	}
	return false
}

func coverageMessage(raw string, rule rules.CoverageRule) string {
	if rule.TargetHeading != "" {
		return fmt.Sprintf("%s is not referenced from any %s document under heading %q",
			raw, rule.TargetArtifact, rule.TargetHeading)
	}
	return fmt.Sprintf("%s is not referenced from any %s document", raw, rule.TargetArtifact)
}
