// Package activity_tools exposes the merged activity feed as an MCP tool.
package activity_tools
