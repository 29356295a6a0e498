// Package card_tools exposes project timeline cards and free-form custom
// cards as MCP tools. Every tool takes a "kind" argument that picks the card set.
package card_tools
