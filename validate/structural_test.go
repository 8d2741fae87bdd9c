package validate

import (
	"reflect"
	"strings"
	"testing"

	"github.com/cypilot/cypilot/artifact"
	"github.com/cypilot/cypilot/report"
	"github.com/cypilot/cypilot/rules"
)

func parse(t *testing.T, kind artifact.Kind, src string) *artifact.Document {
	t.Helper()
	doc, diags := artifact.ParseDocument("docs/test.md", kind, []byte(src))
	if len(diags) != 0 {
		t.Fatalf("parse diagnostics: %v", diags)
	}
	return doc
}

func ruleSetFor(t *testing.T, kind artifact.Kind) *rules.RuleSet {
	t.Helper()
	rs, ok := rules.Defaults().For(kind)
	if !ok {
		t.Fatalf("no ruleset for %s", kind)
	}
	return rs
}

const validADR = `---
status: accepted
date: 2026-02-01
---
# Use Postgres

**ID**: ` + "`cpt-sys-adr-use-postgres`" + `

## Context

Background.

## Decision Outcome

We use Postgres.

### Consequences

Simpler operations.
`

func TestValidADRPasses(t *testing.T) {
	doc := parse(t, artifact.KindADR, validADR)
	diags := Document(doc, ruleSetFor(t, artifact.KindADR))
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

// An ADR missing the "### Consequences" subheading under
// "## Decision Outcome" yields exactly one structural violation citing
// that heading, and nothing else.
func TestADRMissingConsequences(t *testing.T) {
	src := strings.Replace(validADR, "### Consequences\n\nSimpler operations.\n", "", 1)
	doc := parse(t, artifact.KindADR, src)
	diags := Document(doc, ruleSetFor(t, artifact.KindADR))

	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d: %v", len(diags), diags)
	}
	d := diags[0]
	if d.Rule != "structure/missing-heading" || d.Kind != report.KindStructural {
		t.Errorf("unexpected diagnostic: %+v", d)
	}
	if !strings.Contains(d.Message, "Consequences") {
		t.Errorf("diagnostic does not cite the heading: %q", d.Message)
	}
}

func TestADRConsequencesUnderWrongParent(t *testing.T) {
	// The heading exists but nested under Context instead of Decision
	// Outcome; the nesting constraint makes this a violation.
	src := `---
status: accepted
date: 2026-02-01
---
# Use Postgres

**ID**: ` + "`cpt-sys-adr-use-postgres`" + `

## Context

### Consequences

Misplaced.

## Decision Outcome

We use Postgres.
`
	doc := parse(t, artifact.KindADR, src)
	diags := Document(doc, ruleSetFor(t, artifact.KindADR))
	if len(diags) != 1 || diags[0].Rule != "structure/missing-heading" {
		t.Fatalf("expected one missing-heading diagnostic, got %v", diags)
	}
}

func TestADRMissingFrontMatter(t *testing.T) {
	src := strings.SplitAfterN(validADR, "---\n", 3)[2] // drop the header block
	doc := parse(t, artifact.KindADR, src)
	diags := Document(doc, ruleSetFor(t, artifact.KindADR))

	if len(diags) != 1 || diags[0].Rule != "structure/front-matter" {
		t.Fatalf("expected one front-matter diagnostic, got %v", diags)
	}
}

// An empty document fails its required headings immediately rather than
// being skipped.
func TestEmptyDocumentFails(t *testing.T) {
	doc := parse(t, artifact.KindPRD, "")
	diags := Document(doc, ruleSetFor(t, artifact.KindPRD))

	missing := 0
	for _, d := range diags {
		if d.Rule == "structure/missing-heading" {
			missing++
		}
	}
	// H1, Actors, Functional Requirements, Non-Functional Requirements.
	if missing != 4 {
		t.Errorf("expected 4 missing-heading diagnostics, got %d: %v", missing, diags)
	}
}

func TestPresentationMismatch(t *testing.T) {
	// actor must be plain; fr must be checkbox with task and priority.
	src := `# PRD

## Actors

- [ ] ` + "`p1`" + ` - **ID**: ` + "`cpt-sys-actor-admin`" + `

## Functional Requirements

**ID**: ` + "`cpt-sys-fr-login`" + `

## Non-Functional Requirements

- [ ] ` + "`p1`" + ` - **ID**: ` + "`cpt-sys-nfr-latency`" + `
`
	doc := parse(t, artifact.KindPRD, src)
	diags := Document(doc, ruleSetFor(t, artifact.KindPRD))

	got := make(map[string]int)
	for _, d := range diags {
		got[d.Rule]++
	}
	want := map[string]int{
		"structure/presentation": 2, // actor as checkbox, fr as plain
		"structure/task":         2,
		"structure/priority":     2,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("diagnostic rules = %v, want %v", got, want)
	}
}

func TestPlacementAndBadPriority(t *testing.T) {
	src := `# PRD

## Actors

**ID**: ` + "`cpt-sys-actor-admin`" + `

- [ ] ` + "`p9`" + ` - **ID**: ` + "`cpt-sys-fr-misplaced`" + `

## Functional Requirements

- [ ] ` + "`p1`" + ` - **ID**: ` + "`cpt-sys-fr-login`" + `

## Non-Functional Requirements

- [ ] ` + "`p2`" + ` - **ID**: ` + "`cpt-sys-nfr-latency`" + `
`
	doc := parse(t, artifact.KindPRD, src)
	diags := Document(doc, ruleSetFor(t, artifact.KindPRD))

	got := make(map[string]int)
	for _, d := range diags {
		got[d.Rule]++
	}
	want := map[string]int{
		"structure/bad-priority": 1, // p9 is not a tier
		"structure/placement":    1, // fr defined under Actors
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("diagnostic rules = %v, want %v", got, want)
	}
}

func TestMissingRequiredID(t *testing.T) {
	src := `# PRD

## Actors

**ID**: ` + "`cpt-sys-actor-admin`" + `

## Functional Requirements

## Non-Functional Requirements

- [ ] ` + "`p1`" + ` - **ID**: ` + "`cpt-sys-nfr-latency`" + `
`
	doc := parse(t, artifact.KindPRD, src)
	diags := Document(doc, ruleSetFor(t, artifact.KindPRD))

	if len(diags) != 1 || diags[0].Rule != "structure/missing-id" {
		t.Fatalf("expected one missing-id diagnostic, got %v", diags)
	}
	if !strings.Contains(diags[0].Message, `"fr"`) {
		t.Errorf("diagnostic does not name the kind: %q", diags[0].Message)
	}
}

func TestUniqueIDViolation(t *testing.T) {
	src := `# Feature

- [ ] **ID**: ` + "`cpt-sys-featstatus-one`" + `
- [ ] **ID**: ` + "`cpt-sys-featstatus-two`" + `

## Flows

## Definition of Done

- [ ] ` + "`p1`" + ` - **ID**: ` + "`cpt-sys-dod-x1`" + `
`
	doc := parse(t, artifact.KindFeature, src)
	diags := Document(doc, ruleSetFor(t, artifact.KindFeature))

	found := false
	for _, d := range diags {
		if d.Rule == "structure/duplicate-id-kind" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected duplicate-id-kind diagnostic, got %v", diags)
	}
}

// Running the validator twice on unchanged input yields identical
// diagnostics.
func TestValidatorDeterministic(t *testing.T) {
	doc := parse(t, artifact.KindADR, validADR)
	rs := ruleSetFor(t, artifact.KindADR)

	first := Document(doc, rs)
	second := Document(doc, rs)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("diagnostics differ across runs: %v vs %v", first, second)
	}
}
