package artifact

import (
	"reflect"
	"testing"

	"github.com/cypilot/cypilot/report"
)

const featureDoc = `# Login Feature

` + "`cpt-sys-feature-login`" + `

- [ ] **ID**: ` + "`cpt-sys-featstatus-login`" + `

## Flows

### Login Flow

- [x] ` + "`p1`" + ` - **ID**: ` + "`cpt-sys-flow-login`" + `

## Definition of Done

- [ ] ` + "`p2`" + ` - **ID**: ` + "`cpt-sys-dod-x1`" + `
`

func TestParseDocumentOccurrences(t *testing.T) {
	doc, diags := ParseDocument("docs/feature-login.md", KindFeature, []byte(featureDoc))
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	if got := len(doc.Occurrences); got != 4 {
		t.Fatalf("expected 4 occurrences, got %d: %+v", got, doc.Occurrences)
	}

	ref := doc.Occurrences[0]
	if ref.ID.Raw != "cpt-sys-feature-login" || ref.Form != FormReference || ref.Presentation != PresentationPlain {
		t.Errorf("bare mention extracted wrong: %+v", ref)
	}
	if !ref.UnderHeading("Login Feature") {
		t.Errorf("reference missing H1 heading path: %v", ref.HeadingPath)
	}

	status := doc.Occurrences[1]
	if status.ID.Kind != IDFeatStatus || status.Form != FormDefinition || status.Presentation != PresentationCheckbox {
		t.Errorf("featstatus extracted wrong: %+v", status)
	}
	if status.Priority != "" || status.Checked {
		t.Errorf("featstatus should be unchecked without priority: %+v", status)
	}

	flow := doc.Occurrences[2]
	if flow.ID.Kind != IDFlow || flow.Form != FormDefinition || !flow.Checked || flow.Priority != "p1" {
		t.Errorf("flow definition extracted wrong: %+v", flow)
	}
	wantPath := []string{"Login Feature", "Flows", "Login Flow"}
	if !reflect.DeepEqual(flow.HeadingPath, wantPath) {
		t.Errorf("flow heading path = %v, want %v", flow.HeadingPath, wantPath)
	}

	dod := doc.Occurrences[3]
	if dod.ID.Raw != "cpt-sys-dod-x1" || dod.Checked || dod.Priority != "p2" {
		t.Errorf("dod definition extracted wrong: %+v", dod)
	}
}

func TestParseDocumentTrackedCheckboxReference(t *testing.T) {
	src := "# Design\n\n## Overview\n\n### Architecture Drivers\n\n- [x] `p1` - `cpt-sys-fr-login`\n"
	doc, diags := ParseDocument("docs/design.md", KindDesign, []byte(src))
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(doc.Occurrences) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(doc.Occurrences))
	}
	occ := doc.Occurrences[0]
	if occ.Form != FormReference || occ.Presentation != PresentationCheckbox {
		t.Errorf("tracked checkbox reference extracted wrong: %+v", occ)
	}
	if !occ.Checked || occ.Priority != "p1" {
		t.Errorf("checkbox state lost: %+v", occ)
	}
	if !occ.UnderHeading("Architecture Drivers") {
		t.Errorf("heading path wrong: %v", occ.HeadingPath)
	}
}

func TestParseDocumentMalformedIdentifier(t *testing.T) {
	src := "# PRD\n\n## Actors\n\n**ID**: `cpt-Sys-FR-Login`\n"
	_, diags := ParseDocument("docs/prd.md", KindPRD, []byte(src))
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %v", len(diags), diags)
	}
	d := diags[0]
	if d.Rule != "id/malformed" || d.Severity != report.SeverityError {
		t.Errorf("unexpected diagnostic: %+v", d)
	}
	if d.Line != 5 {
		t.Errorf("expected line 5, got %d", d.Line)
	}
}

func TestParseDocumentFrontMatter(t *testing.T) {
	src := "---\nstatus: accepted\ndate: 2026-01-12\n---\n# Use Postgres\n\n**ID**: `cpt-sys-adr-use-postgres`\n"
	doc, diags := ParseDocument("docs/adr-001.md", KindADR, []byte(src))
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if doc.FrontMatter == nil {
		t.Fatal("front-matter not parsed")
	}
	if doc.FrontMatter.Status != "accepted" || doc.FrontMatter.Date != "2026-01-12" {
		t.Errorf("front-matter = %+v", doc.FrontMatter)
	}
	// Lines after the front-matter keep their file positions.
	if len(doc.Headings) != 1 || doc.Headings[0].Line != 5 {
		t.Errorf("heading line offset wrong: %+v", doc.Headings)
	}
}

func TestParseDocumentSkipsCodeFences(t *testing.T) {
	src := "# Doc\n\n```\n**ID**: `cpt-sys-fr-fenced`\n```\n\n`cpt-sys-fr-real`\n"
	doc, diags := ParseDocument("docs/prd.md", KindPRD, []byte(src))
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(doc.Occurrences) != 1 || doc.Occurrences[0].ID.Raw != "cpt-sys-fr-real" {
		t.Errorf("fence contents leaked into extraction: %+v", doc.Occurrences)
	}
}

// Extraction is a pure function of input text: two runs yield identical
// results in identical order.
func TestParseDocumentDeterministic(t *testing.T) {
	doc1, diags1 := ParseDocument("docs/feature-login.md", KindFeature, []byte(featureDoc))
	doc2, diags2 := ParseDocument("docs/feature-login.md", KindFeature, []byte(featureDoc))

	if !reflect.DeepEqual(doc1.Occurrences, doc2.Occurrences) {
		t.Error("occurrences differ across runs")
	}
	if !reflect.DeepEqual(diags1, diags2) {
		t.Error("diagnostics differ across runs")
	}
}
