// Package resolve builds the requirement graph for a root mod.
//
// A session starts from one mod, fetches its page, parses the requirement
// tables, and repeats for every first-party requirement it discovers, fanning
// the fetches out over a worker pool. Discovery is breadth-ordered but
// completion order is nondeterministic; the graph serializes all mutations,
// so two branches racing on a shared requirement merge into one node.
//
// Failure handling is asymmetric. A root that cannot be fetched fails the
// whole session: there is nothing to show. Any other node that fails keeps
// its place in the graph with a diagnostic attached and simply doesn't
// expand, so one dead mod page never hides the rest of the tree.
//
// Already-installed mods and already-downloaded archives are marked satisfied
// and never expanded. Classes registered with the exclusion tracker (queued
// by an earlier session, still in flight) are likewise left unexpanded.
package resolve
