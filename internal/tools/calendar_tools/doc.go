// Package calendar_tools exposes Google Calendar events and their tags as MCP tools.
package calendar_tools
