package artifact

import "testing"

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
		system  string
		kind    IDKind
		slug    string
	}{
		{raw: "cpt-sys-fr-login", system: "sys", kind: IDFR, slug: "login"},
		{raw: "cpt-billing-nfr-latency-p99", system: "billing", kind: IDNFR, slug: "latency-p99"},
		{raw: "cpt-sys-featstatus-login", system: "sys", kind: IDFeatStatus, slug: "login"},
		{raw: "cpt-sys-dod-x1", system: "sys", kind: IDDoD, slug: "x1"},
		{raw: "cpt-Sys-FR-Login", wantErr: true}, // uppercase is never normalized
		{raw: "cpt-sys-login", wantErr: true},    // missing kind segment
		{raw: "cpt-sys-widget-login", wantErr: true},
		{raw: "sys-fr-login", wantErr: true},
		{raw: "cpt-sys-fr-", wantErr: true},
		{raw: "cpt--fr-login", wantErr: true},
		{raw: "cpt-sys-fr-log_in", wantErr: true},
	}

	for _, tt := range tests {
		id, err := ParseIdentifier(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseIdentifier(%q): expected error, got %+v", tt.raw, id)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseIdentifier(%q): unexpected error: %v", tt.raw, err)
			continue
		}
		if id.System != tt.system || id.Kind != tt.kind || id.Slug != tt.slug {
			t.Errorf("ParseIdentifier(%q) = %+v, want system=%s kind=%s slug=%s",
				tt.raw, id, tt.system, tt.kind, tt.slug)
		}
	}
}

// Extraction then re-serialization of a valid identifier is the identity.
func TestParseIdentifierRoundTrip(t *testing.T) {
	valid := []string{
		"cpt-sys-fr-login",
		"cpt-sys-adr-use-postgres",
		"cpt-core-component-rule-registry",
		"cpt-app-flow-checkout-happy-path",
		"cpt-a1-state-idle",
	}
	for _, raw := range valid {
		id, err := ParseIdentifier(raw)
		if err != nil {
			t.Fatalf("ParseIdentifier(%q): %v", raw, err)
		}
		if id.String() != raw {
			t.Errorf("round-trip of %q produced %q", raw, id.String())
		}
	}
}

func TestIDKindTraceable(t *testing.T) {
	for _, k := range []IDKind{IDFlow, IDAlgo, IDState, IDDoD} {
		if !k.Traceable() {
			t.Errorf("%s should be traceable", k)
		}
	}
	for _, k := range []IDKind{IDActor, IDFR, IDNFR, IDADR, IDComponent, IDFeature, IDFeatStatus} {
		if k.Traceable() {
			t.Errorf("%s should not be traceable", k)
		}
	}
}
