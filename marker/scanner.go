// Package marker scans source trees for embedded trace markers and
// correlates them with FEATURE-defined traceable identifiers.
//
// Marker grammar: @cpt-{kind}:{id}:p{N} with kind in {flow, algo, state,
// req} and optional :begin / :end boundary suffixes. Any occurrence of a
// tag counts as trace evidence; unbalanced boundary pairs are warnings.
package marker

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// markerPattern matches one trace tag. The identifier segment is
// deliberately permissive so malformed identifiers are caught and
// reported instead of silently skipped.
var markerPattern = regexp.MustCompile(`@cpt-(flow|algo|state|req):(cpt-[A-Za-z0-9-]+):p([0-9]+)(?::(begin|end))?`)

// skipDirs are never descended into during a scan.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"docs":         true,
}

// Marker is one trace tag occurrence in a source file.
type Marker struct {
	Kind     string // flow | algo | state | req
	ID       string // raw identifier as written
	Part     int
	Boundary string // "", "begin" or "end"
	Path     string
	Line     int
}

// Tag returns the canonical tag text without boundary suffix.
func (m Marker) Tag() string {
	return fmt.Sprintf("@cpt-%s:%s:p%d", m.Kind, m.ID, m.Part)
}

// ScanConfig configures a source-tree scan.
type ScanConfig struct {
	// Roots are the directories to walk.
	Roots []string
	// Exclude holds doublestar patterns matched against paths relative to
	// each root.
	Exclude []string
	// Logger for skipped-path debug output; defaults to slog.Default().
	Logger *slog.Logger
}

// Scan walks the configured roots and returns every marker occurrence,
// ordered by path then line. Unreadable files are skipped with a debug
// log; the scan itself only fails on a broken root.
func Scan(cfg ScanConfig) ([]Marker, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var markers []Marker
	for _, root := range cfg.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			if excluded(rel, cfg.Exclude) {
				logger.Debug("excluded from marker scan", slog.String("path", rel))
				return nil
			}

			found, scanErr := scanFile(path)
			if scanErr != nil {
				logger.Debug("skipping unreadable file", slog.String("path", path), slog.String("error", scanErr.Error()))
				return nil
			}
			markers = append(markers, found...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}

	sort.Slice(markers, func(i, j int) bool {
		if markers[i].Path != markers[j].Path {
			return markers[i].Path < markers[j].Path
		}
		return markers[i].Line < markers[j].Line
	})
	return markers, nil
}

func excluded(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, filepath.ToSlash(rel)); err == nil && ok {
			return true
		}
	}
	return false
}

// scanFile extracts the markers of one file. Binary files (NUL byte in
// the first 8 KiB) are ignored.
func scanFile(path string) ([]Marker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	probe := data
	if len(probe) > 8192 {
		probe = probe[:8192]
	}
	if bytes.IndexByte(probe, 0) >= 0 {
		return nil, nil
	}

	var markers []Marker
	for i, line := range strings.Split(string(data), "\n") {
		for _, m := range markerPattern.FindAllStringSubmatch(line, -1) {
			part, _ := strconv.Atoi(m[3])
			markers = append(markers, Marker{
				Kind:     m[1],
				ID:       m[2],
				Part:     part,
				Boundary: m[4],
				Path:     path,
				Line:     i + 1,
			})
		}
	}
	return markers, nil
}
