// Package export renders a resolved requirement graph for sharing.
//
// Two formats are supported: Graphviz DOT text and an SVG rendered from it.
// Node fills encode ownership: white for pending items, green for archives
// already downloaded, blue for installed mods, and degraded nodes outline
// dashed with their diagnostic in the label. Off-site links render as
// ellipses since they are followed by hand, not dispatched.
package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/sacredwitness/prereq/pkg/errors"
	"github.com/sacredwitness/prereq/pkg/graph"
)

// ToDOT converts a requirement graph to Graphviz DOT format.
// Output is deterministic: nodes and edges are emitted in sorted id order.
func ToDOT(g *graph.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph requirements {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	nodes := g.Nodes()
	for _, n := range nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for _, n := range nodes {
		for _, child := range g.Requires(n.ID) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.ID, child)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.Node) []string {
	attrs := []string{fmt.Sprintf("label=%q", nodeLabel(n))}

	switch {
	case n.Status == graph.StatusDownloaded:
		attrs = append(attrs, "fillcolor=palegreen")
	case n.Status == graph.StatusInstalled:
		attrs = append(attrs, "fillcolor=lightblue")
	case n.Diag != "":
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=mistyrose")
	}
	if n.Kind == graph.KindOffsite {
		attrs = append(attrs, "shape=ellipse")
	}
	return attrs
}

func nodeLabel(n graph.Node) string {
	label := n.DisplayName
	if label == "" {
		label = string(n.ID)
	}
	if n.SizeKB > 0 {
		label = fmt.Sprintf("%s\n%.1f MB", label, float64(n.SizeKB)/1024)
	}
	if n.Status.Satisfied() {
		label += "\n(owned)"
	}
	if n.Diag != "" {
		label += "\n" + n.Diag
	}
	return label
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render SVG")
	}
	return buf.Bytes(), nil
}
