// Package runner orchestrates a validation run: workspace discovery, the
// per-document fan-out, the graph barrier, coverage, marker correlation,
// the cascade, and report assembly.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cypilot/cypilot/artifact"
	"github.com/cypilot/cypilot/cascade"
	"github.com/cypilot/cypilot/config"
	"github.com/cypilot/cypilot/marker"
	"github.com/cypilot/cypilot/refgraph"
	"github.com/cypilot/cypilot/report"
	"github.com/cypilot/cypilot/rules"
	"github.com/cypilot/cypilot/validate"
)

// Options configures a run.
type Options struct {
	Config   *config.Config
	Registry *rules.Registry
	Logger   *slog.Logger
}

// docResult carries the per-document outputs of the fan-out phase.
type docResult struct {
	doc   *artifact.Document
	diags []report.Diagnostic
}

// Run executes the full pipeline. The only error return is an unusable
// input set (unreadable workspace, broken marker roots); everything found
// in the documents themselves is accumulated into the report.
func Run(ctx context.Context, opts Options) (*report.Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	reg := opts.Registry

	ws, err := Discover(cfg.Workspace.Root, cfg.Workspace.DocsGlob, cfg.Workspace.Exclude, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("discovered workspace", slog.Int("documents", len(ws.Docs)))

	// Phase A: per-document parse + structural validation fan out with no
	// shared mutable state between documents; the marker scan runs
	// alongside since it consumes disjoint inputs. The group wait is the
	// phase barrier.
	results := make([]docResult, len(ws.Docs))
	var markers []marker.Marker

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0) + 1)

	for i, df := range ws.Docs {
		i, df := i, df
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, readErr := os.ReadFile(df.Path)
			if readErr != nil {
				return fmt.Errorf("read %s: %w", df.Path, readErr)
			}
			doc, diags := artifact.ParseDocument(relPath(ws.Root, df.Path), df.Kind, content)
			if rs, ok := reg.For(df.Kind); ok {
				diags = append(diags, validate.Document(doc, rs)...)
			}
			results[i] = docResult{doc: doc, diags: diags}
			return nil
		})
	}

	g.Go(func() error {
		roots := make([]string, 0, len(cfg.Markers.Sources))
		for _, src := range cfg.Markers.Sources {
			if filepath.IsAbs(src) {
				roots = append(roots, src)
			} else {
				roots = append(roots, filepath.Join(ws.Root, src))
			}
		}
		found, scanErr := marker.Scan(marker.ScanConfig{
			Roots:   roots,
			Exclude: cfg.Markers.Exclude,
			Logger:  logger,
		})
		if scanErr != nil {
			return scanErr
		}
		markers = found
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var diags []report.Diagnostic
	docs := make([]*artifact.Document, len(results))
	for i, r := range results {
		docs[i] = r.doc
		diags = append(diags, r.diags...)
	}

	// Phase B: the graph needs every document; coverage needs the graph.
	graph, graphDiags := refgraph.Build(docs)
	diags = append(diags, graphDiags...)

	coverageDiags, gaps := refgraph.CheckCoverage(graph, reg)
	diags = append(diags, coverageDiags...)

	// Phase C: correlate code-side evidence, then cascade.
	traceable := make(map[string]artifact.IDKind)
	for _, node := range graph.Nodes() {
		if node.Defined() && node.ID.Kind.Traceable() && node.Definition.Artifact == artifact.KindFeature {
			traceable[node.ID.Raw] = node.ID.Kind
		}
	}
	index, markerDiags := marker.Correlate(normalizeMarkerPaths(ws.Root, markers), traceable)
	diags = append(diags, markerDiags...)

	result := cascade.Compute(graph, index.Counts())
	diags = append(diags, result.Diags...)

	// Phase D: pure aggregation.
	rep := report.Assemble(diags, gaps, result.StateStrings(), cfg.Output.FailOnWarning)
	logger.Debug("run complete",
		slog.Int("diagnostics", len(rep.Diagnostics)),
		slog.Bool("passed", rep.Passed))
	return rep, nil
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

func normalizeMarkerPaths(root string, markers []marker.Marker) []marker.Marker {
	out := make([]marker.Marker, len(markers))
	for i, m := range markers {
		m.Path = relPath(root, m.Path)
		out[i] = m
	}
	return out
}
