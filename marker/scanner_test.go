package marker

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanFindsMarkers(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/auth.go", `package auth

// @cpt-flow:cpt-sys-flow-login:p1:begin
func Login() {}

// @cpt-flow:cpt-sys-flow-login:p1:end
// @cpt-req:cpt-sys-dod-x1:p1
`)
	writeFile(t, root, "src/other.py", "# @cpt-algo:cpt-sys-algo-hash:p2\n")

	markers, err := Scan(ScanConfig{Roots: []string{root}})
	if err != nil {
		t.Fatal(err)
	}
	if len(markers) != 4 {
		t.Fatalf("expected 4 markers, got %d: %v", len(markers), markers)
	}

	first := markers[0]
	if first.Kind != "flow" || first.ID != "cpt-sys-flow-login" || first.Part != 1 || first.Boundary != "begin" {
		t.Errorf("unexpected first marker: %+v", first)
	}
	if first.Line != 3 {
		t.Errorf("first marker line = %d", first.Line)
	}
	if markers[1].Boundary != "end" || markers[2].Boundary != "" {
		t.Errorf("boundaries wrong: %+v", markers[:3])
	}
}

func TestScanOrderedByPathThenLine(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.go", "// @cpt-flow:cpt-sys-flow-b:p1\n")
	writeFile(t, root, "a.go", "\n\n// @cpt-flow:cpt-sys-flow-a:p1\n// @cpt-flow:cpt-sys-flow-a:p2\n")

	markers, err := Scan(ScanConfig{Roots: []string{root}})
	if err != nil {
		t.Fatal(err)
	}
	if len(markers) != 3 {
		t.Fatalf("got %d markers", len(markers))
	}
	if markers[0].ID != "cpt-sys-flow-a" || markers[0].Line != 3 {
		t.Errorf("order wrong: %+v", markers)
	}
	if markers[2].ID != "cpt-sys-flow-b" {
		t.Errorf("order wrong: %+v", markers)
	}
}

func TestScanSkipsDirsAndExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/keep.go", "// @cpt-flow:cpt-sys-flow-keep:p1\n")
	writeFile(t, root, "node_modules/dep.js", "// @cpt-flow:cpt-sys-flow-dep:p1\n")
	writeFile(t, root, "docs/feature.md", "`cpt-sys-flow-doc` @cpt-flow:cpt-sys-flow-doc:p1\n")
	writeFile(t, root, "gen/out.go", "// @cpt-flow:cpt-sys-flow-gen:p1\n")

	markers, err := Scan(ScanConfig{
		Roots:   []string{root},
		Exclude: []string{"gen/**"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(markers) != 1 || markers[0].ID != "cpt-sys-flow-keep" {
		t.Fatalf("expected only the kept marker, got %v", markers)
	}
}

func TestScanIgnoresBinaryFiles(t *testing.T) {
	root := t.TempDir()
	bin := append([]byte("@cpt-flow:cpt-sys-flow-x:p1"), 0x00, 0x01)
	if err := os.WriteFile(filepath.Join(root, "blob.bin"), bin, 0o644); err != nil {
		t.Fatal(err)
	}

	markers, err := Scan(ScanConfig{Roots: []string{root}})
	if err != nil {
		t.Fatal(err)
	}
	if len(markers) != 0 {
		t.Errorf("binary file yielded markers: %v", markers)
	}
}

func TestMarkerTag(t *testing.T) {
	m := Marker{Kind: "req", ID: "cpt-sys-dod-x1", Part: 1, Boundary: "begin"}
	if got := m.Tag(); got != "@cpt-req:cpt-sys-dod-x1:p1" {
		t.Errorf("Tag() = %q", got)
	}
}
