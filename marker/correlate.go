package marker

import (
	"fmt"
	"sort"

	"github.com/cypilot/cypilot/artifact"
	"github.com/cypilot/cypilot/report"
)

// kindForMarker maps a marker kind to the identifier kind it traces.
// "req" markers trace definition-of-done identifiers.
var kindForMarker = map[string]artifact.IDKind{
	"flow":  artifact.IDFlow,
	"algo":  artifact.IDAlgo,
	"state": artifact.IDState,
	"req":   artifact.IDDoD,
}

// TraceIndex maps a raw identifier to the marker occurrences that
// reference it. An identifier absent from the index is not yet traced.
type TraceIndex map[string][]Marker

// Counts returns the per-identifier marker counts consumed by the cascade
// engine.
func (t TraceIndex) Counts() map[string]int {
	counts := make(map[string]int, len(t))
	for id, ms := range t {
		counts[id] = len(ms)
	}
	return counts
}

// Correlate matches scanned markers against the FEATURE-defined traceable
// identifiers. defined maps a raw identifier to its kind. Markers whose
// identifier is unknown are orphaned: the inconsistency runs code -> doc,
// a distinct diagnostic kind from missing coverage.
func Correlate(markers []Marker, defined map[string]artifact.IDKind) (TraceIndex, []report.Diagnostic) {
	index := make(TraceIndex)
	var diags []report.Diagnostic

	type pairKey struct {
		path string
		tag  string
	}
	balance := make(map[pairKey]int)
	var pairOrder []pairKey

	for _, m := range markers {
		if _, err := artifact.ParseIdentifier(m.ID); err != nil {
			diags = append(diags, report.Diagnostic{
				Kind:     report.KindMarker,
				Severity: report.SeverityError,
				Path:     m.Path,
				Line:     m.Line,
				Rule:     "marker/malformed-id",
				Message:  fmt.Sprintf("marker %s: %v", m.Tag(), err),
			})
			continue
		}

		wantKind := kindForMarker[m.Kind]
		definedKind, ok := defined[m.ID]
		if !ok {
			diags = append(diags, report.Diagnostic{
				Kind:     report.KindMarker,
				Severity: report.SeverityError,
				Path:     m.Path,
				Line:     m.Line,
				Rule:     "marker/orphaned",
				Message:  fmt.Sprintf("marker %s references %s, which no FEATURE document defines", m.Tag(), m.ID),
			})
			continue
		}
		if definedKind != wantKind {
			diags = append(diags, report.Diagnostic{
				Kind:     report.KindMarker,
				Severity: report.SeverityError,
				Path:     m.Path,
				Line:     m.Line,
				Rule:     "marker/kind-mismatch",
				Message: fmt.Sprintf("marker %s traces %q identifiers but %s is a %q identifier",
					m.Tag(), wantKind, m.ID, definedKind),
			})
			continue
		}

		index[m.ID] = append(index[m.ID], m)

		if m.Boundary != "" {
			key := pairKey{path: m.Path, tag: m.Tag()}
			if _, seen := balance[key]; !seen {
				pairOrder = append(pairOrder, key)
			}
			if m.Boundary == "begin" {
				balance[key]++
			} else {
				balance[key]--
			}
		}
	}

	sort.Slice(pairOrder, func(i, j int) bool {
		if pairOrder[i].path != pairOrder[j].path {
			return pairOrder[i].path < pairOrder[j].path
		}
		return pairOrder[i].tag < pairOrder[j].tag
	})
	for _, key := range pairOrder {
		if balance[key] == 0 {
			continue
		}
		diags = append(diags, report.Diagnostic{
			Kind:     report.KindMarker,
			Severity: report.SeverityWarning,
			Path:     key.path,
			Rule:     "marker/unbalanced",
			Message:  fmt.Sprintf("begin/end markers for %s are unbalanced", key.tag),
		})
	}

	return index, diags
}
