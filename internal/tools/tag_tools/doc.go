// Package tag_tools exposes the user's pin and priority tags as MCP tools.
package tag_tools
