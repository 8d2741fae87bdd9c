// Package refgraph aggregates identifier occurrences from every document
// in a workspace into a directed graph of definitions and references, and
// checks the cross-artifact coverage table against it.
package refgraph

import (
	"fmt"
	"sort"

	"github.com/cypilot/cypilot/artifact"
	"github.com/cypilot/cypilot/report"
)

// Node is one identifier in the graph: at most one definition, any number
// of reference edges.
type Node struct {
	ID artifact.Identifier
	// Definition is nil for identifiers that are only referenced.
	Definition *artifact.Occurrence
	References []artifact.Occurrence
}

// Defined reports whether the node has a definition edge.
func (n *Node) Defined() bool { return n.Definition != nil }

// Graph is the workspace-wide reference graph. It is built once from all
// documents and never mutated afterwards; coverage and cascade passes own
// it exclusively during their phase.
type Graph struct {
	nodes map[string]*Node
	// kinds records which artifact kinds exist in the workspace, even when
	// their documents define nothing. Coverage uses it to distinguish
	// "violated" from "not yet checkable".
	kinds map[artifact.Kind]bool
}

// Build consumes the occurrence lists of all documents and resolves every
// reference. Duplicate definitions and references with no definition are
// returned as diagnostics. Documents are processed in sorted path order so
// the graph and its diagnostics are stable across runs.
func Build(docs []*artifact.Document) (*Graph, []report.Diagnostic) {
	sorted := make([]*artifact.Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	g := &Graph{
		nodes: make(map[string]*Node),
		kinds: make(map[artifact.Kind]bool),
	}
	var diags []report.Diagnostic

	for _, doc := range sorted {
		g.kinds[doc.Kind] = true
		for _, occ := range doc.Occurrences {
			node := g.nodes[occ.ID.Raw]
			if node == nil {
				node = &Node{ID: occ.ID}
				g.nodes[occ.ID.Raw] = node
			}

			switch occ.Form {
			case artifact.FormDefinition:
				if node.Definition != nil {
					diags = append(diags, report.Diagnostic{
						Kind:     report.KindReference,
						Severity: report.SeverityError,
						Path:     occ.Path,
						Line:     occ.Line,
						Rule:     "ref/duplicate-definition",
						Message: fmt.Sprintf("%s is already defined at %s:%d",
							occ.ID.Raw, node.Definition.Path, node.Definition.Line),
					})
					continue
				}
				def := occ
				node.Definition = &def
			case artifact.FormReference:
				node.References = append(node.References, occ)
			}
		}
	}

	// Resolution is deferred until all documents are processed: a
	// reference may legitimately precede its definition in path order.
	for _, raw := range g.sortedIDs() {
		node := g.nodes[raw]
		if node.Defined() {
			continue
		}
		for _, ref := range node.References {
			diags = append(diags, report.Diagnostic{
				Kind:     report.KindReference,
				Severity: report.SeverityError,
				Path:     ref.Path,
				Line:     ref.Line,
				Heading:  lastOf(ref.HeadingPath),
				Rule:     "ref/dangling",
				Message:  fmt.Sprintf("reference to %s has no matching definition", raw),
			})
		}
	}

	return g, diags
}

// Node returns the node for a raw identifier, or nil.
func (g *Graph) Node(raw string) *Node {
	return g.nodes[raw]
}

// HasArtifactKind reports whether any document of the given kind exists in
// the workspace.
func (g *Graph) HasArtifactKind(kind artifact.Kind) bool {
	return g.kinds[kind]
}

// DefinitionsOf returns every defined node of the given identifier kind
// whose definition lives in a document of the given artifact kind, ordered
// by definition path then line.
func (g *Graph) DefinitionsOf(idKind artifact.IDKind, in artifact.Kind) []*Node {
	var nodes []*Node
	for _, raw := range g.sortedIDs() {
		n := g.nodes[raw]
		if !n.Defined() || n.ID.Kind != idKind {
			continue
		}
		if n.Definition.Artifact != in {
			continue
		}
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i].Definition, nodes[j].Definition
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Line < b.Line
	})
	return nodes
}

// Nodes returns every node ordered by raw identifier.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, raw := range g.sortedIDs() {
		nodes = append(nodes, g.nodes[raw])
	}
	return nodes
}

func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for raw := range g.nodes {
		ids = append(ids, raw)
	}
	sort.Strings(ids)
	return ids
}

func lastOf(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}
