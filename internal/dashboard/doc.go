// Package dashboard is the application service shared by the HTTP API and the
// MCP tools.
//
// It wires the entity readers, tag filter engine, list cache and activity
// aggregator to the tag store and per-user Google clients. Email views live in
// a registry of list cache views keyed by user and view id, evicted when idle
// and dropped on sign-out.
//
// Star, tag and label changes on emails are optimistic: cached copies are
// patched first, the write follows, and a failed write restores every copy
// from the snapshot taken before the patch.
package dashboard
