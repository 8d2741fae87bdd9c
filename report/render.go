package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Render writes a human-readable report grouped by file. Output contains
// only deterministic content: the run ID and timestamp are deliberately
// excluded so identical inputs render identically.
func (r *Report) Render(w io.Writer) error {
	var b strings.Builder

	currentPath := ""
	for _, d := range r.Diagnostics {
		if d.Path != currentPath {
			if currentPath != "" {
				b.WriteString("\n")
			}
			currentPath = d.Path
			fmt.Fprintf(&b, "%s\n", d.Path)
		}
		loc := ""
		if d.Line > 0 {
			loc = fmt.Sprintf("%d: ", d.Line)
		}
		fmt.Fprintf(&b, "  %s%s: [%s] %s\n", loc, d.Severity, d.Rule, d.Message)
	}

	if len(r.Diagnostics) > 0 {
		b.WriteString("\n")
	}

	if len(r.ChainGaps) > 0 {
		b.WriteString("Chain incomplete (not yet checkable):\n")
		for _, g := range r.ChainGaps {
			fmt.Fprintf(&b, "  %s\n", g.String())
		}
		b.WriteString("\n")
	}

	if len(r.Cascade) > 0 {
		ids := make([]string, 0, len(r.Cascade))
		for id := range r.Cascade {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		b.WriteString("Completion status:\n")
		for _, id := range ids {
			fmt.Fprintf(&b, "  %-12s %s\n", r.Cascade[id], id)
		}
		b.WriteString("\n")
	}

	byKind, errors, warnings := r.Counts()
	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	fmt.Fprintf(&b, "Summary: %d error(s), %d warning(s)", errors, warnings)
	if len(kinds) > 0 {
		parts := make([]string, 0, len(kinds))
		for _, k := range kinds {
			parts = append(parts, fmt.Sprintf("%s=%d", k, byKind[Kind(k)]))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")

	if r.Passed {
		b.WriteString("Result: PASS\n")
	} else {
		b.WriteString("Result: FAIL\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderJSON writes the report as indented JSON.
func (r *Report) RenderJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
