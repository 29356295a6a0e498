// Package cmd implements the command-line interface for tagdeck.
//
// This package provides the following commands:
//   - serve: Start the HTTP API and the MCP endpoint
//   - migrate: Apply the tag store schema
//   - token: Issue a bearer token for local development
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// Configuration is read from tagdeck.yaml, TAGDECK_* environment variables
// and flags, in increasing order of precedence.
package cmd
