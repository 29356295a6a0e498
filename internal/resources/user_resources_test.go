package resources

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/tagdeck/internal/store"
	"github.com/teemow/tagdeck/internal/tools/tooltest"
)

func readRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{Params: mcp.ReadResourceParams{URI: uri}}
}

func contentText(t *testing.T, contents []mcp.ResourceContents) string {
	t.Helper()
	require.Len(t, contents, 1)
	tc, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", tc.MIMEType)
	return tc.Text
}

func TestUserProfile(t *testing.T) {
	env := tooltest.New(t, RegisterUserResources)

	contents, err := handleUserProfile(env.Ctx, readRequest(ProfileURI))
	require.NoError(t, err)

	var profile map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(contentText(t, contents)), &profile))
	assert.Equal(t, tooltest.UserID, profile["userId"])
	assert.Equal(t, "jane@example.com", profile["email"])
	assert.Equal(t, true, profile["gmailConnected"])

	_, err = handleUserProfile(context.Background(), readRequest(ProfileURI))
	assert.Error(t, err)
}

func TestTags(t *testing.T) {
	env := tooltest.New(t, RegisterUserResources)

	contents, err := handleTags(env.Ctx, readRequest(TagsURI), env.SC)
	require.NoError(t, err)

	var tags []store.Tag
	require.NoError(t, json.Unmarshal([]byte(contentText(t, contents)), &tags))
	assert.Len(t, tags, len(store.DefaultTags))
	for _, tag := range tags {
		assert.Equal(t, tooltest.UserID, tag.UserID)
	}

	_, err = handleTags(context.Background(), readRequest(TagsURI), env.SC)
	assert.Error(t, err)
}
