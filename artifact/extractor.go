package artifact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cypilot/cypilot/report"
)

// Pre-compiled line patterns for the extraction grammar.
var (
	// headingPattern matches ATX headings up to H6.
	headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)
	// checkboxPattern matches a markdown checkbox item and captures the
	// glyph state and the payload after it.
	checkboxPattern = regexp.MustCompile(`^[-*]\s*\[([ xX])\]\s*(.*)$`)
	// priorityPattern matches a leading backticked priority tag in a
	// checkbox payload: `pN` - ...
	priorityPattern = regexp.MustCompile("^`(p[0-9]+)`\\s*-\\s*(.*)$")
	// definitionPattern matches the plain definition encoding:
	// **ID**: `cpt-...`
	definitionPattern = regexp.MustCompile("\\*\\*ID\\*\\*:\\s*`([^`]+)`")
	// backtickPattern matches every backticked token on a line.
	backtickPattern = regexp.MustCompile("`([^`]+)`")
	// fencePattern matches a code-fence delimiter line.
	fencePattern = regexp.MustCompile("^\\s*(```|~~~)")
)

// ParseDocument builds an immutable Document from raw text: front-matter,
// heading tree, and every identifier occurrence in document order. It is a
// pure function of its input; malformed identifiers are reported as
// diagnostics, never cause an abort.
func ParseDocument(path string, kind Kind, content []byte) (*Document, []report.Diagnostic) {
	doc := &Document{Path: path, Kind: kind}
	var diags []report.Diagnostic

	body := string(content)
	lineOffset := 0
	if yamlSrc, rest, headerLines, ok := splitFrontMatter(body); ok {
		fm, err := parseFrontMatter(yamlSrc)
		if err != nil {
			diags = append(diags, report.Diagnostic{
				Kind:     report.KindStructural,
				Severity: report.SeverityError,
				Path:     path,
				Line:     1,
				Rule:     "structure/front-matter",
				Message:  fmt.Sprintf("invalid front-matter: %v", err),
			})
		} else {
			doc.FrontMatter = fm
		}
		body = rest
		lineOffset = headerLines
	}

	var stack []Heading
	inFence := false

	for i, line := range strings.Split(body, "\n") {
		lineNo := lineOffset + i + 1

		if fencePattern.MatchString(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			h := Heading{Level: len(m[1]), Text: m[2], Line: lineNo}
			for len(stack) > 0 && stack[len(stack)-1].Level >= h.Level {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, h)
			doc.Headings = append(doc.Headings, h)
			continue
		}

		headingPath := make([]string, len(stack))
		for j, h := range stack {
			headingPath[j] = h.Text
		}

		occs, lineDiags := extractLine(path, kind, line, lineNo, headingPath)
		doc.Occurrences = append(doc.Occurrences, occs...)
		diags = append(diags, lineDiags...)
	}

	return doc, diags
}

// extractLine yields the identifier occurrences of a single line.
//
// Recognized encodings:
//
//	**ID**: `cpt-...`                 plain definition
//	- [ ] `pN` - **ID**: `cpt-...`    checkbox definition
//	`cpt-...`                         bare reference
//	- [x] `pN` - `cpt-...`            tracked checkbox reference
func extractLine(path string, kind Kind, line string, lineNo int, headingPath []string) ([]Occurrence, []report.Diagnostic) {
	var occs []Occurrence
	var diags []report.Diagnostic

	presentation := PresentationPlain
	checked := false
	priority := ""
	payload := line

	if m := checkboxPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
		presentation = PresentationCheckbox
		checked = m[1] == "x" || m[1] == "X"
		payload = m[2]
		if pm := priorityPattern.FindStringSubmatch(payload); pm != nil {
			priority = pm[1]
			payload = pm[2]
		}
	}

	defToken := ""
	if dm := definitionPattern.FindStringSubmatch(payload); dm != nil {
		defToken = dm[1]
	}

	malformed := func(reason error) {
		diags = append(diags, report.Diagnostic{
			Kind:     report.KindStructural,
			Severity: report.SeverityError,
			Path:     path,
			Line:     lineNo,
			Heading:  lastHeading(headingPath),
			Rule:     "id/malformed",
			Message:  reason.Error(),
		})
	}

	firstRef := true
	for _, tm := range backtickPattern.FindAllStringSubmatch(payload, -1) {
		token := tm[1]
		if !looksLikeIdentifier(token) {
			continue
		}

		id, err := ParseIdentifier(token)
		if err != nil {
			malformed(err)
			continue
		}

		occ := Occurrence{
			ID:          id,
			Path:        path,
			Artifact:    kind,
			HeadingPath: headingPath,
			Line:        lineNo,
		}

		switch {
		case token == defToken:
			occ.Form = FormDefinition
			occ.Presentation = presentation
			occ.Checked = checked
			occ.Priority = priority
		case presentation == PresentationCheckbox && firstRef && defToken == "":
			// Tracked checkbox reference: the first identifier in the
			// checkbox payload carries the task and priority state.
			occ.Form = FormReference
			occ.Presentation = PresentationCheckbox
			occ.Checked = checked
			occ.Priority = priority
		default:
			occ.Form = FormReference
			occ.Presentation = PresentationPlain
		}
		firstRef = false

		occs = append(occs, occ)
	}

	return occs, diags
}

func lastHeading(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}
