package gmail_tools

import (
	"encoding/json"
	"errors"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/tagdeck/internal/dashboard"
	"github.com/teemow/tagdeck/internal/reader"
	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/store"
	"github.com/teemow/tagdeck/internal/tools/batch"
	"github.com/teemow/tagdeck/internal/tools/tooltest"
)

func setup(t *testing.T, readOnly bool) *tooltest.Env {
	return tooltest.New(t, func(s *mcpserver.MCPServer, sc *server.ServerContext) error {
		return RegisterGmailTools(s, sc, readOnly)
	})
}

func createTag(t *testing.T, env *tooltest.Env, name string) store.Tag {
	t.Helper()
	tag, err := env.Service.CreateTag(env.Ctx, tooltest.UserID, dashboard.TagInput{Name: name, Type: "pin"})
	require.NoError(t, err)
	return *tag
}

func TestRegisterGmailTools_ReadOnly(t *testing.T) {
	tools := setup(t, true).MCP.ListTools()
	assert.Contains(t, tools, "email_list")
	assert.Contains(t, tools, "email_tagged_today")
	assert.NotContains(t, tools, "email_toggle_star")
	assert.NotContains(t, tools, "email_send")
}

func TestEmailList_Paging(t *testing.T) {
	env := setup(t, true)

	var page dashboard.EmailPage
	tooltest.Decode(t, env.Call(t, "email_list", nil), &page)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "m1", page.Items[0].ID)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrev)

	tooltest.Decode(t, env.Call(t, "email_list", map[string]interface{}{"page": "next"}), &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "m3", page.Items[0].ID)
	assert.True(t, page.HasPrev)

	// A separate view keeps its own cursor.
	tooltest.Decode(t, env.Call(t, "email_list", map[string]interface{}{"viewId": "other"}), &page)
	assert.Equal(t, "m1", page.Items[0].ID)
}

func TestEmailList_InvalidArguments(t *testing.T) {
	env := setup(t, true)

	res := env.Call(t, "email_list", map[string]interface{}{"view": "kanban"})
	assert.True(t, res.IsError)

	res = env.Call(t, "email_list", map[string]interface{}{"view": "filter", "mode": "most"})
	assert.True(t, res.IsError)
}

func TestEmailList_CredentialExpired(t *testing.T) {
	env := setup(t, true)
	env.Clients.Expired = true

	res := env.Call(t, "email_list", nil)
	assert.True(t, res.IsError)
	assert.Contains(t, tooltest.Text(res), "/signin")
}

func TestEmailToggleTag_Batch(t *testing.T) {
	env := setup(t, false)
	tag := createTag(t, env, "Follow up")

	var page dashboard.EmailPage
	tooltest.Decode(t, env.Call(t, "email_list", nil), &page)

	var summary batch.BatchResult
	tooltest.Decode(t, env.Call(t, "email_toggle_tag", map[string]interface{}{
		"emailIds": []interface{}{"m1", "m2"},
		"tagId":    tag.ID,
	}), &summary)
	assert.Equal(t, 2, summary.Successful)

	tooltest.Decode(t, env.Call(t, "email_list", map[string]interface{}{
		"view": "filter",
		"tags": tag.ID,
	}), &page)
	assert.ElementsMatch(t, []string{"m1", "m2"}, emailIDs(page.Items))

	tooltest.Decode(t, env.Call(t, "email_toggle_tag", map[string]interface{}{
		"emailIds": "m1",
		"tagId":    tag.ID,
	}), &summary)
	require.Len(t, summary.Results, 1)
	state := summary.Results[0].Result.(map[string]interface{})
	assert.Empty(t, state["tags"])
}

func TestEmailToggleTag_UnknownTag(t *testing.T) {
	env := setup(t, false)

	res := env.Call(t, "email_toggle_tag", map[string]interface{}{
		"emailIds": []interface{}{"m1"},
		"tagId":    "missing",
	})
	assert.True(t, res.IsError)

	var summary batch.BatchResult
	require.NoError(t, json.Unmarshal([]byte(tooltest.Text(res)), &summary))
	assert.Equal(t, 1, summary.Failed)
}

func TestEmailToggleStar(t *testing.T) {
	env := setup(t, false)

	var summary batch.BatchResult
	tooltest.Decode(t, env.Call(t, "email_toggle_star", map[string]interface{}{"emailIds": "m1"}), &summary)
	require.Equal(t, 1, summary.Successful)
	state := summary.Results[0].Result.(map[string]interface{})
	assert.Equal(t, true, state["is_starred"])

	metas, err := env.Store.EmailMetas(env.Ctx, tooltest.UserID, []string{"m1"})
	require.NoError(t, err)
	assert.True(t, metas["m1"].Starred)
}

func TestEmailModify(t *testing.T) {
	env := setup(t, false)

	var page dashboard.EmailPage
	tooltest.Decode(t, env.Call(t, "email_list", nil), &page)

	var summary batch.BatchResult
	tooltest.Decode(t, env.Call(t, "email_modify", map[string]interface{}{
		"emailIds": []interface{}{"m1", "m2"},
		"action":   dashboard.ActionMarkRead,
	}), &summary)
	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, []string{"m1", "m2"}, env.Clients.Mail.Modified)

	env.Clients.Mail.ModifyErr = errors.New("backend unavailable")
	res := env.Call(t, "email_modify", map[string]interface{}{
		"emailIds": "m1",
		"action":   dashboard.ActionArchive,
	})
	assert.True(t, res.IsError)

	res = env.Call(t, "email_modify", map[string]interface{}{
		"emailIds": "m1",
		"action":   "delete",
	})
	assert.True(t, res.IsError)
}

func TestEmailSend(t *testing.T) {
	env := setup(t, false)

	res := env.Call(t, "email_send", map[string]interface{}{
		"to":      "a@example.com, b@example.com",
		"subject": "Hello",
		"body":    "Hi",
	})
	require.False(t, res.IsError, tooltest.Text(res))
	assert.Contains(t, tooltest.Text(res), "sent-1")
	require.Len(t, env.Clients.Mail.Sent, 1)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, env.Clients.Mail.Sent[0].To)

	res = env.Call(t, "email_send", map[string]interface{}{"to": "not an address"})
	assert.True(t, res.IsError)
}

func TestSplitEmailAddresses(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: "", want: nil},
		{input: "a@example.com", want: []string{"a@example.com"}},
		{input: " a@example.com ,, b@example.com ", want: []string{"a@example.com", "b@example.com"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitEmailAddresses(tt.input), tt.input)
	}
}

func emailIDs(items []reader.Email) []string {
	ids := make([]string, len(items))
	for i, e := range items {
		ids[i] = e.ID
	}
	return ids
}
