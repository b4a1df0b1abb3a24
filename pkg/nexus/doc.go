// Package nexus is the client for the Nexus Mods platform.
//
// Two surfaces are involved. Mod pages (www.nexusmods.com) are plain HTML
// and carry the requirement tables; the v1 JSON API (api.nexusmods.com)
// serves mod metadata, file lists, and download links, authenticated with a
// personal API key. Both go through a shared file cache with TTL expiry and
// retry with exponential backoff for transient failures; download links are
// never cached because they expire server-side.
//
// The API enforces hourly and daily request budgets per key. Responses with
// status 429 surface as [errors.RateLimitedError] and are not retried.
package nexus
