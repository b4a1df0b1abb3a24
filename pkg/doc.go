// Package pkg provides the core libraries for prereq requirement resolution.
//
// # Overview
//
// Prereq turns the requirements tables of a Nexus Mods page into the full
// transitive closure of everything a mod needs, then drives the downloads
// that closure still requires. The pkg directory is organized into:
//
//  1. Domain logic: [scrape] (requirement-table parsing), [graph]
//     (deduplicated requirement DAG and selection state), [resolve]
//     (concurrent closure expansion)
//  2. Infrastructure: [httputil] (retry and file cache), [exclusion]
//     (self-exclusion tracking), [config], [errors], [observability]
//  3. External access: [nexus] (site pages and JSON API), [host] (.meta
//     companions, downloads and installed-mod scanning, directory watch)
//  4. Orchestration: [queue] (download batches), [export] (DOT/SVG output)
//
// # Architecture
//
// The typical data flow through prereq:
//
//	Mod page markup
//	         ↓
//	    [scrape] package (requirement rows)
//	         ↓
//	    [resolve] package (concurrent closure expansion)
//	         ↓
//	    [graph] package (deduplicated DAG + class selection)
//	         ↓
//	    [queue] + [host] packages (dispatch transfers, land archives)
//
// # Quick Start
//
// Resolve the closure of a mod and queue its downloads:
//
//	cache, _ := httputil.NewCache("", 24*time.Hour)
//	client, _ := nexus.NewClient("skyrimspecialedition", apiKey, cache)
//	parser, _ := scrape.NewParser("skyrimspecialedition")
//	engine, _ := resolve.NewEngine("skyrimspecialedition", client, parser, nil, nil)
//
//	result, err := engine.Resolve(ctx, 3863, resolve.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, n := range result.Graph.Leaves() {
//	    fmt.Println(n.DisplayName)
//	}
package pkg
