// Package report defines the diagnostic model and the final validation
// report produced by a run. It is a pure aggregation layer: all checking
// logic lives in the packages that emit diagnostics.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Severity classifies how a diagnostic affects the overall result.
// Warnings never fail a run.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Kind groups diagnostics by the validation pass that produced them.
type Kind string

const (
	KindStructural Kind = "structural"
	KindReference  Kind = "reference"
	KindCoverage   Kind = "coverage"
	KindCascade    Kind = "cascade"
	KindMarker     Kind = "marker"
)

// Diagnostic is one finding. Diagnostics are accumulated, never raised as
// aborting failures; one malformed document must not prevent validation of
// the rest of the workspace.
type Diagnostic struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Path     string   `json:"path"`
	Line     int      `json:"line,omitempty"`
	Heading  string   `json:"heading,omitempty"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	loc := d.Path
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", d.Path, d.Line)
	}
	return fmt.Sprintf("%s: %s: [%s] %s", loc, d.Severity, d.Rule, d.Message)
}

// ChainGap records a required coverage edge that could not be checked
// because no document of the target artifact kind exists yet. It is a
// summary-level note, not a violation.
type ChainGap struct {
	SourceKind     string `json:"source_kind"`
	SourceArtifact string `json:"source_artifact"`
	TargetArtifact string `json:"target_artifact"`
}

func (g ChainGap) String() string {
	return fmt.Sprintf("%s (%s) -> %s", g.SourceKind, g.SourceArtifact, g.TargetArtifact)
}

// Report is the full result of one validation run.
type Report struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Diagnostics []Diagnostic      `json:"diagnostics"`
	ChainGaps   []ChainGap        `json:"chain_gaps,omitempty"`
	Cascade     map[string]string `json:"cascade,omitempty"` // ID -> completion state
	Passed      bool              `json:"passed"`
}

// Assemble merges diagnostics from all passes into one ordered report.
// Ordering is by file, then line, then rule, then message, so output is
// reproducible across runs on identical input. The run fails iff any
// error-severity diagnostic exists (or any warning when failOnWarning
// is set).
func Assemble(diags []Diagnostic, gaps []ChainGap, cascade map[string]string, failOnWarning bool) *Report {
	sorted := make([]Diagnostic, len(diags))
	copy(sorted, diags)
	Sort(sorted)

	sortedGaps := make([]ChainGap, len(gaps))
	copy(sortedGaps, gaps)
	sort.Slice(sortedGaps, func(i, j int) bool {
		if sortedGaps[i].SourceKind != sortedGaps[j].SourceKind {
			return sortedGaps[i].SourceKind < sortedGaps[j].SourceKind
		}
		return sortedGaps[i].TargetArtifact < sortedGaps[j].TargetArtifact
	})

	passed := true
	for _, d := range sorted {
		if d.Severity == SeverityError || (failOnWarning && d.Severity == SeverityWarning) {
			passed = false
			break
		}
	}

	return &Report{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Diagnostics: sorted,
		ChainGaps:   sortedGaps,
		Cascade:     cascade,
		Passed:      passed,
	}
}

// Sort orders diagnostics by path, line, rule, then message.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Message < b.Message
	})
}

// Counts returns the number of diagnostics per kind, and the error and
// warning totals.
func (r *Report) Counts() (byKind map[Kind]int, errors, warnings int) {
	byKind = make(map[Kind]int)
	for _, d := range r.Diagnostics {
		byKind[d.Kind]++
		switch d.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	return byKind, errors, warnings
}
