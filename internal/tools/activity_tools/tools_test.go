package activity_tools

import (
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/tagdeck/internal/activity"
	"github.com/teemow/tagdeck/internal/dashboard"
	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/tools/tooltest"
)

func setup(t *testing.T) *tooltest.Env {
	return tooltest.New(t, func(s *mcpserver.MCPServer, sc *server.ServerContext) error {
		return RegisterActivityTools(s, sc)
	})
}

func TestActivityFeed(t *testing.T) {
	env := setup(t)
	ctx := env.Ctx

	tag, err := env.Service.CreateTag(ctx, tooltest.UserID, dashboard.TagInput{Name: "Later", Type: "pin"})
	require.NoError(t, err)
	_, err = env.Service.ToggleEmailTag(ctx, tooltest.UserID, "", "m1", tag.ID)
	require.NoError(t, err)
	_, err = env.Service.CreateCustomCard(ctx, tooltest.UserID, dashboard.CustomCardInput{Title: "Notes"})
	require.NoError(t, err)

	var entries []activity.Entry
	tooltest.Decode(t, env.Call(t, "activity_feed", nil), &entries)
	require.Len(t, entries, 2)
	types := []activity.Type{entries[0].Type, entries[1].Type}
	assert.ElementsMatch(t, []activity.Type{activity.EmailTagAdded, activity.CardCreated}, types)

	tooltest.Decode(t, env.Call(t, "activity_feed", map[string]interface{}{"limit": float64(1)}), &entries)
	assert.Len(t, entries, 1)
}

func TestActivityFeed_InvalidArguments(t *testing.T) {
	env := setup(t)

	res := env.Call(t, "activity_feed", map[string]interface{}{"limit": float64(-1)})
	assert.True(t, res.IsError)

	res = env.Call(t, "activity_feed", map[string]interface{}{"since": "last week"})
	assert.True(t, res.IsError)
}
