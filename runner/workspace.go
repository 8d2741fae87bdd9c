package runner

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cypilot/cypilot/artifact"
)

// DocFile is one discovered artifact document.
type DocFile struct {
	Path string
	Kind artifact.Kind
}

// Workspace is the discovered input set of one validation run.
type Workspace struct {
	Root string
	Docs []DocFile
}

// Discover resolves the docs glob under root and classifies each match by
// filename convention. Results are sorted and deduplicated so runs are
// reproducible. Files that match no artifact kind are skipped with a
// debug log, not an error.
func Discover(root, docsGlob string, exclude []string, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pattern := docsGlob
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(root, docsGlob)
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("resolve docs glob %q: %w", docsGlob, err)
	}

	ws := &Workspace{Root: root}
	seen := make(map[string]bool)
	for _, path := range matches {
		if seen[path] {
			continue
		}
		seen[path] = true

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if matchesAny(rel, exclude) {
			logger.Debug("excluded from discovery", slog.String("path", rel))
			continue
		}

		kind, ok := classify(path)
		if !ok {
			logger.Debug("skipping unclassified document", slog.String("path", rel))
			continue
		}
		ws.Docs = append(ws.Docs, DocFile{Path: path, Kind: kind})
	}

	sort.Slice(ws.Docs, func(i, j int) bool { return ws.Docs[i].Path < ws.Docs[j].Path })
	return ws, nil
}

func matchesAny(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, filepath.ToSlash(rel)); err == nil && ok {
			return true
		}
	}
	return false
}

// classify maps a document path to its artifact kind. The base filename
// is checked first, then the parent directory names, so both
// docs/prd-auth.md and docs/prd/auth.md resolve to PRD.
func classify(path string) (artifact.Kind, bool) {
	if kind, ok := classifyToken(filepath.Base(path)); ok {
		return kind, true
	}
	dir := filepath.Dir(path)
	for {
		base := filepath.Base(dir)
		if base == "." || base == string(filepath.Separator) || base == dir {
			break
		}
		if kind, ok := classifyToken(base); ok {
			return kind, true
		}
		dir = filepath.Dir(dir)
	}
	return "", false
}

func classifyToken(name string) (artifact.Kind, bool) {
	name = strings.ToLower(name)
	switch {
	case strings.HasPrefix(name, "prd"):
		return artifact.KindPRD, true
	case strings.HasPrefix(name, "adr"):
		return artifact.KindADR, true
	case strings.HasPrefix(name, "design"):
		return artifact.KindDesign, true
	case strings.HasPrefix(name, "decomposition"), strings.HasPrefix(name, "decomp"):
		return artifact.KindDecomposition, true
	case strings.HasPrefix(name, "feature"):
		return artifact.KindFeature, true
	}
	return "", false
}
