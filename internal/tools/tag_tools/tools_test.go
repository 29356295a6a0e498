package tag_tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/store"
	"github.com/teemow/tagdeck/internal/tools/tooltest"
)

func setup(t *testing.T, readOnly bool) *tooltest.Env {
	return tooltest.New(t, func(s *mcpserver.MCPServer, sc *server.ServerContext) error {
		return RegisterTagTools(s, sc, readOnly)
	})
}

func TestRegisterTagTools_ReadOnly(t *testing.T) {
	env := setup(t, true)
	tools := env.MCP.ListTools()
	assert.Contains(t, tools, "tag_list")
	assert.NotContains(t, tools, "tag_create")
	assert.NotContains(t, tools, "tag_delete")
}

func TestTagTools(t *testing.T) {
	env := setup(t, false)

	var tags []store.Tag
	tooltest.Decode(t, env.Call(t, "tag_list", nil), &tags)
	assert.Len(t, tags, len(store.DefaultTags))

	var created store.Tag
	tooltest.Decode(t, env.Call(t, "tag_create", map[string]interface{}{
		"name": "Waiting",
		"type": "pin",
	}), &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "#4285F4", created.Color)

	var renamed store.Tag
	tooltest.Decode(t, env.Call(t, "tag_update", map[string]interface{}{
		"tagId": created.ID,
		"name":  "Blocked",
	}), &renamed)
	assert.Equal(t, "Blocked", renamed.Name)
	assert.Equal(t, created.Color, renamed.Color)

	res := env.Call(t, "tag_delete", map[string]interface{}{"tagId": created.ID})
	require.False(t, res.IsError, tooltest.Text(res))

	tooltest.Decode(t, env.Call(t, "tag_list", nil), &tags)
	assert.Len(t, tags, len(store.DefaultTags))
}

func TestTagTools_Errors(t *testing.T) {
	env := setup(t, false)

	tests := []struct {
		name     string
		tool     string
		args     map[string]interface{}
		contains string
	}{
		{name: "invalid type", tool: "tag_create", args: map[string]interface{}{"name": "x", "type": "label"}, contains: "Failed to create tag"},
		{name: "bad color", tool: "tag_create", args: map[string]interface{}{"name": "x", "type": "pin", "color": "red"}, contains: "Failed to create tag"},
		{name: "update without fields", tool: "tag_update", args: map[string]interface{}{"tagId": "t1"}, contains: "name or color is required"},
		{name: "update unknown tag", tool: "tag_update", args: map[string]interface{}{"tagId": "missing", "name": "x"}, contains: "Failed to update tag"},
		{name: "delete without id", tool: "tag_delete", args: map[string]interface{}{}, contains: "tagId is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.Call(t, tt.tool, tt.args)
			assert.True(t, res.IsError)
			assert.Contains(t, tooltest.Text(res), tt.contains)
		})
	}
}

func TestTagTools_RequiresSession(t *testing.T) {
	env := setup(t, false)
	res := env.CallWithContext(t, context.Background(), "tag_list", nil)
	assert.True(t, res.IsError)
	assert.Contains(t, tooltest.Text(res), "Not signed in")
}
