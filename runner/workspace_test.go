package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cypilot/cypilot/artifact"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		kind artifact.Kind
		ok   bool
	}{
		{"docs/prd.md", artifact.KindPRD, true},
		{"docs/prd-auth.md", artifact.KindPRD, true},
		{"docs/PRD.md", artifact.KindPRD, true},
		{"docs/adr-001-postgres.md", artifact.KindADR, true},
		{"docs/design.md", artifact.KindDesign, true},
		{"docs/decomposition.md", artifact.KindDecomposition, true},
		{"docs/decomp.md", artifact.KindDecomposition, true},
		{"docs/feature-login.md", artifact.KindFeature, true},
		// Parent directory names classify when the filename does not.
		{"docs/prd/auth.md", artifact.KindPRD, true},
		{"docs/features/login.md", artifact.KindFeature, true},
		{"docs/notes.md", "", false},
		{"README.md", "", false},
	}

	for _, tc := range cases {
		kind, ok := classify(filepath.FromSlash(tc.path))
		if ok != tc.ok || kind != tc.kind {
			t.Errorf("classify(%s) = %q, %v; want %q, %v", tc.path, kind, ok, tc.kind, tc.ok)
		}
	}
}

func TestDiscoverSortsAndExcludes(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"prd.md", "adr-001.md", "design.md", "notes.md"} {
		writeDoc(t, root, filepath.Join("docs", name), "# Doc\n")
	}
	writeDoc(t, root, filepath.Join("docs", "drafts", "prd-old.md"), "# Old\n")

	ws, err := Discover(root, "docs/**/*.md", []string{"docs/drafts/**"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	// notes.md is unclassified, drafts/ is excluded.
	if len(ws.Docs) != 3 {
		t.Fatalf("expected 3 documents, got %v", ws.Docs)
	}
	wantKinds := []artifact.Kind{artifact.KindADR, artifact.KindDesign, artifact.KindPRD}
	for i, df := range ws.Docs {
		if df.Kind != wantKinds[i] {
			t.Errorf("doc %d kind = %s, want %s", i, df.Kind, wantKinds[i])
		}
	}
}

func TestDiscoverEmptyWorkspace(t *testing.T) {
	ws, err := Discover(t.TempDir(), "docs/**/*.md", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(ws.Docs) != 0 {
		t.Errorf("expected no documents, got %v", ws.Docs)
	}
}

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
