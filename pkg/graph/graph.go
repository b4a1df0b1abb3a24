package graph

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrInvalidNodeID is returned by [Graph.Upsert] when the node ID is
	// empty. All nodes must have non-empty dedup keys.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrUnknownNode is returned when an operation references a node that
	// does not exist in the graph.
	ErrUnknownNode = errors.New("unknown node")
)

// Kind distinguishes first-party requirements from off-site ones.
type Kind int

const (
	// KindNexus is a first-party requirement: a mod or file hosted on the
	// same platform, resolvable without leaving it.
	KindNexus Kind = iota
	// KindOffsite is a requirement whose target lives outside the platform.
	// Off-site nodes are leaves by definition: there is no generic way to
	// parse an arbitrary external site, so they are never expanded.
	KindOffsite
)

func (k Kind) String() string {
	if k == KindOffsite {
		return "offsite"
	}
	return "nexus"
}

// Status describes what is already known about a node's content.
type Status int

const (
	// StatusUnknown means the item is not known to be present locally.
	// Degraded nodes (fetch failures) also carry StatusUnknown, with a
	// diagnostic attached.
	StatusUnknown Status = iota
	// StatusDownloaded means the archive already exists in the downloads
	// location. Downloaded nodes are never expanded further.
	StatusDownloaded
	// StatusInstalled means the mod is present in the installed-mod list.
	// Installed nodes are never expanded further.
	StatusInstalled
)

func (s Status) String() string {
	switch s {
	case StatusDownloaded:
		return "downloaded"
	case StatusInstalled:
		return "installed"
	default:
		return "unknown"
	}
}

// Satisfied reports whether the status means the item is already owned.
// Satisfied nodes render inert and are excluded from expansion and dispatch.
func (s Status) Satisfied() bool {
	return s == StatusDownloaded || s == StatusInstalled
}

// NodeID is the dedup key of a node. Two requirement rows reached through
// different parents produce the same NodeID exactly when they target the
// same thing. Key namespaces never merge across kinds: a mod cross-listed
// on and off the platform yields two nodes.
type NodeID string

// ClassID identifies the concrete downloadable item behind one or more
// nodes. Selection state is keyed by ClassID.
type ClassID string

// ModKey returns the dedup key for a first-party mod reference.
func ModKey(modID int64) NodeID {
	return NodeID(fmt.Sprintf("nexus:%d", modID))
}

// FileKey returns the dedup key for a first-party file reference
// (a specific file under a mod).
func FileKey(modID, fileID int64) NodeID {
	return NodeID(fmt.Sprintf("nexus:%d/%d", modID, fileID))
}

// URLKey returns the dedup key for an off-site reference.
func URLKey(u string) NodeID {
	return NodeID("url:" + u)
}

// ModClass returns the dedup class of a whole-mod reference.
func ModClass(modID int64) ClassID {
	return ClassID(fmt.Sprintf("nexus:%d", modID))
}

// FileClass returns the dedup class of a concrete file under a mod.
func FileClass(modID, fileID int64) ClassID {
	return ClassID(fmt.Sprintf("nexus:%d/%d", modID, fileID))
}

// Node is a unit of downloadable content in the requirement graph.
//
// Nodes are created the first time their dedup key is encountered and never
// duplicated; later encounters only grow RequiredBy. File nodes (FileID != 0)
// and off-site nodes are leaves; mod nodes expand into their requirement
// rows and their downloadable files.
type Node struct {
	ID          NodeID
	Kind        Kind
	ModID       int64  // first-party mod id (0 for off-site nodes)
	FileID      int64  // specific file id, 0 when the reference names a whole mod
	URL         string // off-site target (empty for first-party nodes)
	DisplayName string
	SizeKB      int64 // archive size for file leaves, 0 elsewhere
	Status      Status
	Diag        string // diagnostic attached when the node degraded instead of expanding

	// RequiredBy is the set of parent node ids. The graph is a DAG with
	// shared descendants; a node reached along several paths lists every
	// parent here.
	RequiredBy []NodeID
}

// Class returns the dedup class of the node: the identity of the concrete
// downloadable item it stands for. File references and off-site references
// that name the same target share a class even when their node ids differ.
func (n Node) Class() ClassID {
	switch {
	case n.Kind == KindOffsite:
		return ClassID("url:" + n.URL)
	case n.FileID != 0:
		return FileClass(n.ModID, n.FileID)
	default:
		return ModClass(n.ModID)
	}
}

// IsLeaf reports whether the node can never expand: off-site references and
// concrete file references are leaves by definition.
func (n Node) IsLeaf() bool {
	return n.Kind == KindOffsite || n.FileID != 0
}

// Downloadable reports whether the node is something the download queue can
// dispatch: a first-party file that is not already owned. Off-site nodes
// are hyperlinks for the user, never machine-downloadable.
func (n Node) Downloadable() bool {
	return n.Kind == KindNexus && n.FileID != 0 && !n.Status.Satisfied()
}

// node is the internal mutable representation.
type node struct {
	Node
	requiredBy map[NodeID]struct{}
}

// Graph is the session-scoped requirement graph.
//
// All methods are safe for concurrent use. Mutations are serialized by a
// single mutex; read accessors return copies.
type Graph struct {
	mu       sync.RWMutex
	root     NodeID
	nodes    map[NodeID]*node
	requires map[NodeID][]NodeID // parent -> ordered child ids, for rendering
}

// New creates an empty graph whose root will be the given node id.
func New(root NodeID) *Graph {
	return &Graph{
		root:     root,
		nodes:    make(map[NodeID]*node),
		requires: make(map[NodeID][]NodeID),
	}
}

// Root returns the id of the session's root node.
func (g *Graph) Root() NodeID { return g.root }

// Upsert merges a node into the graph and returns whether it was created.
//
// If a node with the same dedup key already exists, no second node is
// materialized: the parent edge is recorded and created is false. This is
// the atomic check-and-set step that makes concurrent expansion of sibling
// branches safe — two branches discovering the same child race on this
// mutex, and the loser degrades to an edge merge.
//
// parent is the discovering node's id; pass "" for the root.
func (g *Graph) Upsert(n Node, parent NodeID) (created bool, err error) {
	if n.ID == "" {
		return false, ErrInvalidNodeID
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	existing, ok := g.nodes[n.ID]
	if !ok {
		nn := &node{Node: n, requiredBy: make(map[NodeID]struct{})}
		g.nodes[n.ID] = nn
		existing = nn
		created = true
	}
	if parent != "" {
		if _, dup := existing.requiredBy[parent]; !dup {
			existing.requiredBy[parent] = struct{}{}
			g.requires[parent] = append(g.requires[parent], n.ID)
		}
	}
	return created, nil
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.snapshot(), true
}

// SetStatus updates a node's status.
func (g *Graph) SetStatus(id NodeID, s Status) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	n.Status = s
	return nil
}

// SetDiag attaches a diagnostic to a node. Used when expansion of the node
// failed and the node was kept in degraded form instead of aborting the
// session.
func (g *Graph) SetDiag(id NodeID, diag string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	n.Diag = diag
	return nil
}

// SetDisplayName updates a node's presentation name. Resolution correctness
// never depends on it.
func (g *Graph) SetDisplayName(id NodeID, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	n.DisplayName = name
	return nil
}

// Requires returns the ordered child ids of a node, in discovery order.
func (g *Graph) Requires(id NodeID) []NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.requires[id])
}

// Len returns the number of materialized nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Nodes returns copies of all nodes, sorted by id for deterministic output.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n.snapshot())
	}
	slices.SortFunc(out, func(a, b Node) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

// Leaves returns copies of all leaf nodes (files and off-site links),
// sorted by id.
func (g *Graph) Leaves() []Node {
	all := g.Nodes()
	out := all[:0]
	for _, n := range all {
		if n.IsLeaf() {
			out = append(out, n)
		}
	}
	return out
}

func (n *node) snapshot() Node {
	out := n.Node
	out.RequiredBy = make([]NodeID, 0, len(n.requiredBy))
	for p := range n.requiredBy {
		out.RequiredBy = append(out.RequiredBy, p)
	}
	slices.Sort(out.RequiredBy)
	return out
}
