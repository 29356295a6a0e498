// Package resources provides MCP resources for the signed-in user.
// Resources are read-only data MCP clients can fetch as context: the user's
// profile with the Google connection flags, and the tag set tools refer to
// by id.
package resources
