// Package common holds the helpers every MCP tool package uses: the
// instrumentation wrapper, session lookup, argument parsing and result
// rendering.
package common
