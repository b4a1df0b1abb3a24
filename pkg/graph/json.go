package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Graph Serialization
// =============================================================================

// Doc is the canonical serialization format for requirement graphs.
// Used for --output files and as input to the export command.
//
// The format is human-readable and designed for round-trip fidelity:
// resolve → write → re-read produces an equivalent graph.
type Doc struct {
	Root  NodeID    `json:"root"`
	Nodes []DocNode `json:"nodes"`
	Edges []DocEdge `json:"edges"`
}

// DocNode is the serialized form of a [Node].
type DocNode struct {
	ID     NodeID `json:"id"`
	Kind   string `json:"kind"`
	Mod    int64  `json:"mod,omitempty"`
	File   int64  `json:"file,omitempty"`
	URL    string `json:"url,omitempty"`
	Name   string `json:"name,omitempty"`
	SizeKB int64  `json:"size_kb,omitempty"`
	Status string `json:"status,omitempty"`
	Diag   string `json:"diag,omitempty"`
}

// DocEdge records that From requires To.
type DocEdge struct {
	From NodeID `json:"from"`
	To   NodeID `json:"to"`
}

// Marshal converts a graph to indented JSON bytes.
// Nodes are sorted by ID for deterministic output.
func Marshal(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes a graph as JSON to an io.Writer.
func Write(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toDoc(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes a graph to a JSON file with 0644 permissions.
func WriteFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(g, f)
}

// Read decodes a JSON graph from an io.Reader.
func Read(r io.Reader) (*Graph, error) {
	var doc Doc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return fromDoc(doc)
}

// ReadFile reads a JSON file and returns the decoded graph.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// =============================================================================
// Internal Conversion
// =============================================================================

func toDoc(g *Graph) Doc {
	nodes := g.Nodes()
	doc := Doc{Root: g.Root(), Nodes: make([]DocNode, len(nodes))}

	for i, n := range nodes {
		doc.Nodes[i] = DocNode{
			ID:     n.ID,
			Kind:   n.Kind.String(),
			Mod:    n.ModID,
			File:   n.FileID,
			URL:    n.URL,
			Name:   n.DisplayName,
			SizeKB: n.SizeKB,
			Status: n.Status.String(),
			Diag:   n.Diag,
		}
	}

	// Emit edges from the parent side so discovery order survives.
	for _, n := range nodes {
		for _, child := range g.Requires(n.ID) {
			doc.Edges = append(doc.Edges, DocEdge{From: n.ID, To: child})
		}
	}
	return doc
}

func fromDoc(doc Doc) (*Graph, error) {
	g := New(doc.Root)

	for _, dn := range doc.Nodes {
		n := Node{
			ID:          dn.ID,
			ModID:       dn.Mod,
			FileID:      dn.File,
			URL:         dn.URL,
			DisplayName: dn.Name,
			SizeKB:      dn.SizeKB,
			Diag:        dn.Diag,
		}
		if dn.Kind == "offsite" {
			n.Kind = KindOffsite
		}
		switch dn.Status {
		case "downloaded":
			n.Status = StatusDownloaded
		case "installed":
			n.Status = StatusInstalled
		}
		if _, err := g.Upsert(n, ""); err != nil {
			return nil, fmt.Errorf("add node %s: %w", dn.ID, err)
		}
	}

	for _, e := range doc.Edges {
		n, ok := g.Node(e.To)
		if !ok {
			return nil, fmt.Errorf("edge %s→%s: %w", e.From, e.To, ErrUnknownNode)
		}
		if _, ok := g.Node(e.From); !ok {
			return nil, fmt.Errorf("edge %s→%s: %w", e.From, e.To, ErrUnknownNode)
		}
		if _, err := g.Upsert(n, e.From); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", e.From, e.To, err)
		}
	}
	return g, nil
}
