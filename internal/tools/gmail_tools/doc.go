// Package gmail_tools exposes the tagged email list and its optimistic
// mutations as MCP tools.
//
// Every call acts on a named list view. Tools default to the "mcp" view so an
// agent never moves the cursor or selection of a browser tab.
package gmail_tools
