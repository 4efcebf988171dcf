// Package respcache caches upstream API responses keyed by request
// shape. Each response kind carries its own freshness window, and
// concurrent fetches for the same key are coalesced into a single
// upstream call.
package respcache
