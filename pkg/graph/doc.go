// Package graph implements the in-memory requirement graph built during a
// resolution session.
//
// # Model
//
// The graph is a DAG with shared descendants, not a tree: a mod that two
// parents both require exists exactly once, with both parents recorded in
// its requiredBy set. Node identity is the dedup key ([NodeID]) derived
// from the requirement target — a first-party mod or file reference, or an
// off-site URL. Re-discovering a known key never creates a second node; it
// only adds a parent edge.
//
// Every node maps to exactly one [ClassID], the identity of the concrete
// downloadable item behind it. Selection state ([Selection]) lives on the
// class, never on the node, so a file reachable through several paths is a
// single togglable unit: flipping it anywhere flips it everywhere.
//
// # Concurrency
//
// Graph methods are safe for concurrent use. Merges are cheap idempotent
// check-and-set steps serialized by a single mutex; readers receive value
// copies. The graph lives for one resolution session and is discarded
// afterwards — nothing here persists across sessions.
package graph
