// Package cascade computes the multi-level completion-status cascade:
// code markers prove traceable leaf IDs complete, a FEATURE's featstatus
// rolls up its leaves, and a DECOMPOSITION feature entry mirrors the
// featstatus of the FEATURE that references it.
//
// The computation is a pure function of the graph and the trace evidence:
// monotone, idempotent, and order-independent. It is recomputed from
// scratch whenever the graph changes and never persisted.
package cascade

import (
	"fmt"

	"github.com/cypilot/cypilot/artifact"
	"github.com/cypilot/cypilot/refgraph"
	"github.com/cypilot/cypilot/report"
)

// State is the tri-state completion value of a traceable identifier.
type State string

const (
	StateIncomplete    State = "incomplete"
	StateComplete      State = "complete"
	StateNotApplicable State = "not-applicable"
)

// Result holds the computed state per identifier plus any
// checkbox-mismatch warnings.
type Result struct {
	States map[string]State
	Diags  []report.Diagnostic
}

// StateStrings returns the states as plain strings for the report.
func (r *Result) StateStrings() map[string]string {
	out := make(map[string]string, len(r.States))
	for id, s := range r.States {
		out[id] = string(s)
	}
	return out
}

// Compute derives every cascade state bottom-up. traced maps a raw
// identifier to the number of code markers that reference it; zero or
// absence means "not yet traced".
func Compute(g *refgraph.Graph, traced map[string]int) *Result {
	res := &Result{States: make(map[string]State)}

	// Tier 1: traceable leaves defined in FEATURE documents. Complete only
	// when the code marker correlator proved at least one matching marker.
	leavesByDoc := make(map[string][]string)
	for _, node := range g.Nodes() {
		if !node.Defined() || !node.ID.Kind.Traceable() {
			continue
		}
		if node.Definition.Artifact != artifact.KindFeature {
			continue
		}
		state := StateIncomplete
		if traced[node.ID.Raw] > 0 {
			state = StateComplete
		}
		res.States[node.ID.Raw] = state
		leavesByDoc[node.Definition.Path] = append(leavesByDoc[node.Definition.Path], node.ID.Raw)
	}

	// Tier 2: featstatus per FEATURE document. Complete iff every leaf in
	// the document is complete; an empty leaf set is NOT vacuously
	// complete (and is flagged as a structural error upstream).
	statusByDoc := make(map[string]string)
	for _, node := range g.Nodes() {
		if !node.Defined() || node.ID.Kind != artifact.IDFeatStatus {
			continue
		}
		docPath := node.Definition.Path
		statusByDoc[docPath] = node.ID.Raw

		leaves := leavesByDoc[docPath]
		state := StateIncomplete
		if len(leaves) > 0 {
			state = StateComplete
			for _, leaf := range leaves {
				if res.States[leaf] != StateComplete {
					state = StateIncomplete
					break
				}
			}
		}
		res.States[node.ID.Raw] = state
	}

	// Tier 3: DECOMPOSITION feature entries mirror the featstatus of the
	// FEATURE document that references them. No referencing FEATURE means
	// the state is not applicable yet.
	for _, node := range g.Nodes() {
		if !node.Defined() || node.ID.Kind != artifact.IDFeature {
			continue
		}
		if node.Definition.Artifact != artifact.KindDecomposition {
			continue
		}
		state := StateNotApplicable
		for _, ref := range node.References {
			if ref.Artifact != artifact.KindFeature {
				continue
			}
			statusRaw, ok := statusByDoc[ref.Path]
			if !ok {
				continue
			}
			if res.States[statusRaw] == StateComplete {
				state = StateComplete
				break
			}
			state = StateIncomplete
		}
		res.States[node.ID.Raw] = state
	}

	res.Diags = checkboxMismatches(g, res.States)
	return res
}

// checkboxMismatches compares the checkbox glyph of each definition with
// the computed state. The computed state is authoritative; a disagreeing
// glyph is surfaced as a warning, never an error.
func checkboxMismatches(g *refgraph.Graph, states map[string]State) []report.Diagnostic {
	var diags []report.Diagnostic
	for _, node := range g.Nodes() {
		state, ok := states[node.ID.Raw]
		if !ok || state == StateNotApplicable || !node.Defined() {
			continue
		}
		def := node.Definition
		if def.Presentation != artifact.PresentationCheckbox {
			continue
		}
		computed := state == StateComplete
		if def.Checked == computed {
			continue
		}
		want := "[ ]"
		if computed {
			want = "[x]"
		}
		diags = append(diags, report.Diagnostic{
			Kind:     report.KindCascade,
			Severity: report.SeverityWarning,
			Path:     def.Path,
			Line:     def.Line,
			Rule:     "cascade/checkbox-mismatch",
			Message: fmt.Sprintf("checkbox state of %s disagrees with computed status %q (expected %s)",
				node.ID.Raw, state, want),
		})
	}
	return diags
}
