package graph

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
)

func TestUpsert_NoDuplicateNodePerKey(t *testing.T) {
	// Mods A and B both require file F: one node, two parents.
	g := New(ModKey(1))

	mustUpsert(t, g, Node{ID: ModKey(1), ModID: 1, DisplayName: "Root"}, "")
	mustUpsert(t, g, Node{ID: ModKey(2), ModID: 2, DisplayName: "A"}, ModKey(1))
	mustUpsert(t, g, Node{ID: ModKey(3), ModID: 3, DisplayName: "B"}, ModKey(1))

	f := Node{ID: FileKey(40, 400), ModID: 40, FileID: 400, DisplayName: "F"}
	created, err := g.Upsert(f, ModKey(2))
	if err != nil || !created {
		t.Fatalf("first Upsert = (%v, %v), want (true, nil)", created, err)
	}
	created, err = g.Upsert(f, ModKey(3))
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if created {
		t.Error("second Upsert created a duplicate node for the same dedup key")
	}

	if g.Len() != 4 {
		t.Errorf("Len() = %d, want 4", g.Len())
	}

	n, ok := g.Node(FileKey(40, 400))
	if !ok {
		t.Fatal("file node missing")
	}
	if len(n.RequiredBy) != 2 {
		t.Fatalf("RequiredBy = %v, want two parents", n.RequiredBy)
	}
}

func TestUpsert_EmptyID(t *testing.T) {
	g := New(ModKey(1))
	if _, err := g.Upsert(Node{}, ""); err == nil {
		t.Fatal("Upsert with empty ID should fail")
	}
}

func TestUpsert_DuplicateParentEdgeIsIdempotent(t *testing.T) {
	g := New(ModKey(1))
	mustUpsert(t, g, Node{ID: ModKey(1), ModID: 1}, "")
	mustUpsert(t, g, Node{ID: ModKey(2), ModID: 2}, ModKey(1))
	mustUpsert(t, g, Node{ID: ModKey(2), ModID: 2}, ModKey(1))

	if got := g.Requires(ModKey(1)); len(got) != 1 {
		t.Errorf("Requires(root) = %v, want exactly one child edge", got)
	}
}

func TestUpsert_CycleKeepsBothNodesWithMutualParents(t *testing.T) {
	// A requires B, B requires A. The graph stores both edges; termination
	// is the resolver's visited-set concern, not the data model's.
	g := New(ModKey(1))
	mustUpsert(t, g, Node{ID: ModKey(1), ModID: 1}, "")
	mustUpsert(t, g, Node{ID: ModKey(2), ModID: 2}, ModKey(1))
	mustUpsert(t, g, Node{ID: ModKey(1), ModID: 1}, ModKey(2))

	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want exactly one node for A and one for B", g.Len())
	}
	a, _ := g.Node(ModKey(1))
	b, _ := g.Node(ModKey(2))
	if len(a.RequiredBy) != 1 || a.RequiredBy[0] != ModKey(2) {
		t.Errorf("A.RequiredBy = %v, want [B]", a.RequiredBy)
	}
	if len(b.RequiredBy) != 1 || b.RequiredBy[0] != ModKey(1) {
		t.Errorf("B.RequiredBy = %v, want [A]", b.RequiredBy)
	}
}

func TestUpsert_ConcurrentMergesNeverMaterializeDuplicates(t *testing.T) {
	// Many goroutines race to discover the same children under different
	// parents; the node count must equal the number of distinct dedup keys.
	g := New(ModKey(1))
	mustUpsert(t, g, Node{ID: ModKey(1), ModID: 1}, "")

	const parents = 8
	const children = 50

	for p := int64(2); p < 2+parents; p++ {
		mustUpsert(t, g, Node{ID: ModKey(p), ModID: p}, ModKey(1))
	}

	var wg sync.WaitGroup
	for p := int64(2); p < 2+parents; p++ {
		wg.Add(1)
		go func(parent int64) {
			defer wg.Done()
			for c := int64(0); c < children; c++ {
				n := Node{ID: FileKey(100, c), ModID: 100, FileID: c}
				if _, err := g.Upsert(n, ModKey(parent)); err != nil {
					t.Errorf("Upsert: %v", err)
				}
			}
		}(p)
	}
	wg.Wait()

	want := 1 + parents + children
	if g.Len() != want {
		t.Errorf("Len() = %d, want %d (one node per distinct dedup key)", g.Len(), want)
	}

	for c := int64(0); c < children; c++ {
		n, ok := g.Node(FileKey(100, c))
		if !ok {
			t.Fatalf("child %d missing", c)
		}
		if len(n.RequiredBy) != parents {
			t.Errorf("child %d RequiredBy has %d parents, want %d", c, len(n.RequiredBy), parents)
		}
	}
}

func TestSetStatusAndDiag(t *testing.T) {
	g := New(ModKey(1))
	mustUpsert(t, g, Node{ID: ModKey(1), ModID: 1}, "")

	if err := g.SetStatus(ModKey(1), StatusInstalled); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if err := g.SetDiag(ModKey(1), "page fetch failed"); err != nil {
		t.Fatalf("SetDiag: %v", err)
	}
	if err := g.SetDisplayName(ModKey(1), "SkyUI"); err != nil {
		t.Fatalf("SetDisplayName: %v", err)
	}

	n, _ := g.Node(ModKey(1))
	if n.Status != StatusInstalled || n.Diag != "page fetch failed" || n.DisplayName != "SkyUI" {
		t.Errorf("node = %+v", n)
	}

	if err := g.SetStatus(ModKey(99), StatusDownloaded); err == nil {
		t.Error("SetStatus on unknown node should fail")
	}
}

func TestNodeClass(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want ClassID
	}{
		{"mod node", Node{ID: ModKey(3863), Kind: KindNexus, ModID: 3863}, "nexus:3863"},
		{"file node", Node{ID: FileKey(3863, 15037), Kind: KindNexus, ModID: 3863, FileID: 15037}, "nexus:3863/15037"},
		{"offsite node", Node{ID: URLKey("https://example.com/x"), Kind: KindOffsite, URL: "https://example.com/x"}, "url:https://example.com/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Class(); got != tt.want {
				t.Errorf("Class() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatusSatisfied(t *testing.T) {
	if StatusUnknown.Satisfied() {
		t.Error("unknown should not be satisfied")
	}
	if !StatusDownloaded.Satisfied() || !StatusInstalled.Satisfied() {
		t.Error("downloaded and installed should be satisfied")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	g := New(ModKey(1))
	mustUpsert(t, g, Node{ID: ModKey(1), Kind: KindNexus, ModID: 1, DisplayName: "Root"}, "")
	mustUpsert(t, g, Node{ID: ModKey(2), Kind: KindNexus, ModID: 2, Status: StatusInstalled}, ModKey(1))
	mustUpsert(t, g, Node{ID: FileKey(2, 20), Kind: KindNexus, ModID: 2, FileID: 20, SizeKB: 2048}, ModKey(2))
	mustUpsert(t, g, Node{ID: URLKey("https://example.com/enb"), Kind: KindOffsite, URL: "https://example.com/enb", DisplayName: "ENB"}, ModKey(1))

	data, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got.Root() != g.Root() {
		t.Errorf("root = %s, want %s", got.Root(), g.Root())
	}
	if got.Len() != g.Len() {
		t.Fatalf("Len() = %d, want %d", got.Len(), g.Len())
	}
	for _, want := range g.Nodes() {
		n, ok := got.Node(want.ID)
		if !ok {
			t.Fatalf("node %s lost in round trip", want.ID)
		}
		if n.Kind != want.Kind || n.Status != want.Status || n.SizeKB != want.SizeKB {
			t.Errorf("node %s = %+v, want %+v", want.ID, n, want)
		}
		if fmt.Sprint(n.RequiredBy) != fmt.Sprint(want.RequiredBy) {
			t.Errorf("node %s RequiredBy = %v, want %v", want.ID, n.RequiredBy, want.RequiredBy)
		}
	}
}

func mustUpsert(t *testing.T, g *Graph, n Node, parent NodeID) {
	t.Helper()
	if _, err := g.Upsert(n, parent); err != nil {
		t.Fatalf("Upsert(%s): %v", n.ID, err)
	}
}
