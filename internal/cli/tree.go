package cli

import (
	"fmt"
	"strings"

	"github.com/sacredwitness/prereq/pkg/graph"
)

// treeRow is one displayed occurrence of a node. A shared node appears once
// per parent; only its first occurrence expands, repeats collapse.
type treeRow struct {
	node   graph.Node
	depth  int
	repeat bool
}

// flattenTree lists the graph depth-first from the root. Repeat occurrences
// of a node are emitted but never descended into, which also terminates on
// requirement cycles.
func flattenTree(g *graph.Graph) []treeRow {
	var rows []treeRow
	expanded := make(map[graph.NodeID]bool)

	var walk func(id graph.NodeID, depth int)
	walk = func(id graph.NodeID, depth int) {
		n, ok := g.Node(id)
		if !ok {
			return
		}
		repeat := expanded[id]
		rows = append(rows, treeRow{node: n, depth: depth, repeat: repeat})
		if repeat {
			return
		}
		expanded[id] = true
		for _, child := range g.Requires(id) {
			walk(child, depth+1)
		}
	}
	walk(g.Root(), 0)
	return rows
}

// printTree writes the requirement tree with checkbox and ownership markers.
func printTree(g *graph.Graph, sel *graph.Selection) {
	for _, row := range flattenTree(g) {
		fmt.Println(renderRow(row, sel, false))
	}
}

// renderRow formats one tree row. Checkbox state is read through the node's
// dedup class, so every occurrence of a shared item shows the same box.
func renderRow(row treeRow, sel *graph.Selection, cursor bool) string {
	n := row.node
	c := n.Class()

	prefix := "  "
	if cursor {
		prefix = "▸ "
	}
	indent := strings.Repeat("  ", row.depth)

	box := "[ ]"
	switch {
	case sel.IsLocked(c):
		box = StyleSuccess.Render("[" + iconSuccess + "]")
	case sel.IsSelected(c):
		box = "[x]"
	}

	name := n.DisplayName
	if name == "" {
		name = string(n.ID)
	}
	line := prefix + indent + box + " " + name

	switch {
	case row.repeat:
		line += StyleDim.Render(" (see above)")
	case n.Status.Satisfied():
		line += StyleDim.Render(" " + n.Status.String())
	case n.Diag != "":
		line += StyleWarning.Render(" " + iconWarning + " " + n.Diag)
	case n.Kind == graph.KindOffsite:
		line += " " + StyleLink.Render(n.URL)
	case n.SizeKB > 0:
		line += StyleDim.Render(fmt.Sprintf(" %.1f MB", float64(n.SizeKB)/1024))
	}
	return line
}
