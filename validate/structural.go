// Package validate implements the structural validator: it checks one
// document's heading sequence and identifier placement against the rule
// registry for its artifact kind. Diagnostics are accumulated; nothing
// aborts.
package validate

import (
	"fmt"
	"strings"

	"github.com/cypilot/cypilot/artifact"
	"github.com/cypilot/cypilot/report"
	"github.com/cypilot/cypilot/rules"
)

// Document validates a parsed document against the RuleSet for its kind.
// Running it twice on unchanged input yields identical diagnostics.
func Document(doc *artifact.Document, rs *rules.RuleSet) []report.Diagnostic {
	var diags []report.Diagnostic

	diags = append(diags, checkFrontMatter(doc, rs)...)
	diags = append(diags, checkHeadings(doc, rs)...)
	diags = append(diags, checkOccurrences(doc, rs)...)
	diags = append(diags, checkPresence(doc, rs)...)

	return diags
}

func checkFrontMatter(doc *artifact.Document, rs *rules.RuleSet) []report.Diagnostic {
	if len(rs.FrontMatter) == 0 {
		return nil
	}

	var diags []report.Diagnostic
	if doc.FrontMatter == nil {
		return []report.Diagnostic{{
			Kind:     report.KindStructural,
			Severity: report.SeverityError,
			Path:     doc.Path,
			Line:     1,
			Rule:     "structure/front-matter",
			Message:  fmt.Sprintf("%s document requires front-matter with keys: %s", doc.Kind, strings.Join(rs.FrontMatter, ", ")),
		}}
	}
	for _, key := range rs.FrontMatter {
		missing := false
		switch key {
		case "status":
			missing = doc.FrontMatter.Status == ""
		case "date":
			missing = doc.FrontMatter.Date == ""
		}
		if missing {
			diags = append(diags, report.Diagnostic{
				Kind:     report.KindStructural,
				Severity: report.SeverityError,
				Path:     doc.Path,
				Line:     1,
				Rule:     "structure/front-matter",
				Message:  fmt.Sprintf("front-matter key %q is missing or empty", key),
			})
		}
	}
	return diags
}

// checkHeadings performs ordered partial matching of the document's
// heading sequence against the rule list: every required heading must
// appear at least once, at the correct level, under the correct parent,
// and in rule order. Repeatable headings match any title.
func checkHeadings(doc *artifact.Document, rs *rules.RuleSet) []report.Diagnostic {
	var diags []report.Diagnostic

	// Parent text per heading index, derived from the heading sequence.
	parents := headingParents(doc.Headings)

	cursor := 0
	for _, rule := range rs.Headings {
		idx := findHeading(doc.Headings, parents, rule, cursor)
		if idx < 0 {
			// Not found ahead of the cursor; an earlier match means the
			// document has the heading out of order.
			if prior := findHeading(doc.Headings, parents, rule, 0); prior >= 0 {
				if rule.Required {
					diags = append(diags, report.Diagnostic{
						Kind:     report.KindStructural,
						Severity: report.SeverityError,
						Path:     doc.Path,
						Line:     doc.Headings[prior].Line,
						Heading:  doc.Headings[prior].Text,
						Rule:     "structure/heading-order",
						Message:  fmt.Sprintf("heading %q appears out of order", rule.Name()),
					})
				}
				continue
			}
			if rule.Required {
				diags = append(diags, report.Diagnostic{
					Kind:     report.KindStructural,
					Severity: report.SeverityError,
					Path:     doc.Path,
					Rule:     "structure/missing-heading",
					Message:  fmt.Sprintf("required heading %q not found", rule.Name()),
				})
			}
			continue
		}
		cursor = idx
	}

	return diags
}

// headingParents computes, for each heading, the text of its nearest
// enclosing heading of a lower level.
func headingParents(headings []artifact.Heading) []string {
	parents := make([]string, len(headings))
	var stack []artifact.Heading
	for i, h := range headings {
		for len(stack) > 0 && stack[len(stack)-1].Level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			parents[i] = stack[len(stack)-1].Text
		}
		stack = append(stack, h)
	}
	return parents
}

func findHeading(headings []artifact.Heading, parents []string, rule rules.HeadingRule, from int) int {
	for i := from; i < len(headings); i++ {
		h := headings[i]
		if h.Level != rule.Level {
			continue
		}
		if !rule.Repeatable && !strings.EqualFold(h.Text, rule.Title) {
			continue
		}
		if rule.Parent != "" && !strings.EqualFold(parents[i], rule.Parent) {
			continue
		}
		return i
	}
	return -1
}

// checkOccurrences validates the presentation of every identifier
// definition against the policy for its kind.
func checkOccurrences(doc *artifact.Document, rs *rules.RuleSet) []report.Diagnostic {
	var diags []report.Diagnostic

	add := func(occ artifact.Occurrence, rule, msg string) {
		diags = append(diags, report.Diagnostic{
			Kind:     report.KindStructural,
			Severity: report.SeverityError,
			Path:     doc.Path,
			Line:     occ.Line,
			Heading:  lastOf(occ.HeadingPath),
			Rule:     rule,
			Message:  msg,
		})
	}

	for _, occ := range doc.Occurrences {
		// Priority tiers are validated on every checkbox occurrence,
		// definitions and tracked references alike.
		if occ.Priority != "" && !rules.ValidPriority(occ.Priority) {
			add(occ, "structure/bad-priority", fmt.Sprintf("priority %q is not a valid tier (p1..p3)", occ.Priority))
		}

		if occ.Form != artifact.FormDefinition {
			continue
		}

		idRule, ok := rs.IDRuleFor(occ.ID.Kind)
		if !ok {
			add(occ, "structure/unexpected-id-kind",
				fmt.Sprintf("%s documents do not define %q identifiers (%s)", doc.Kind, occ.ID.Kind, occ.ID.Raw))
			continue
		}

		if idRule.Checkbox && occ.Presentation != artifact.PresentationCheckbox {
			add(occ, "structure/presentation",
				fmt.Sprintf("%s must be defined in checkbox form", occ.ID.Raw))
		}
		if !idRule.Checkbox && occ.Presentation != artifact.PresentationPlain {
			add(occ, "structure/presentation",
				fmt.Sprintf("%s must be defined in plain form, not as a checkbox", occ.ID.Raw))
		}

		hasTask := occ.Presentation == artifact.PresentationCheckbox
		switch idRule.Task {
		case rules.PolicyRequired:
			if !hasTask {
				add(occ, "structure/task", fmt.Sprintf("%s requires a task checkbox", occ.ID.Raw))
			}
		case rules.PolicyProhibited:
			if hasTask {
				add(occ, "structure/task", fmt.Sprintf("%s must not carry a task checkbox", occ.ID.Raw))
			}
		}

		switch idRule.Priority {
		case rules.PolicyRequired:
			if occ.Priority == "" {
				add(occ, "structure/priority", fmt.Sprintf("%s requires a priority tier", occ.ID.Raw))
			}
		case rules.PolicyProhibited:
			if occ.Priority != "" {
				add(occ, "structure/priority", fmt.Sprintf("%s must not carry a priority tier", occ.ID.Raw))
			}
		}

		if idRule.Heading != "" && !occ.UnderHeading(idRule.Heading) {
			add(occ, "structure/placement",
				fmt.Sprintf("%s must be defined under heading %q", occ.ID.Raw, idRule.Heading))
		}
	}

	return diags
}

// checkPresence enforces required-presence and uniqueness per identifier
// kind. An empty document fails immediately rather than being skipped.
func checkPresence(doc *artifact.Document, rs *rules.RuleSet) []report.Diagnostic {
	var diags []report.Diagnostic

	for _, idRule := range rs.IDs {
		defs := doc.DefinitionsOf(idRule.Kind)
		if idRule.Required && len(defs) == 0 {
			diags = append(diags, report.Diagnostic{
				Kind:     report.KindStructural,
				Severity: report.SeverityError,
				Path:     doc.Path,
				Rule:     "structure/missing-id",
				Message:  fmt.Sprintf("%s document must define at least one %q identifier", doc.Kind, idRule.Kind),
			})
		}
		if idRule.Unique && len(defs) > 1 {
			diags = append(diags, report.Diagnostic{
				Kind:     report.KindStructural,
				Severity: report.SeverityError,
				Path:     doc.Path,
				Line:     defs[1].Line,
				Rule:     "structure/duplicate-id-kind",
				Message:  fmt.Sprintf("%s document must define exactly one %q identifier, found %d", doc.Kind, idRule.Kind, len(defs)),
			})
		}
	}

	return diags
}

func lastOf(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}
