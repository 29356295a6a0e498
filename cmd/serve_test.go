package cmd

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/tagdeck/internal/config"
	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/session"
)

var readOnlyTools = []string{
	"activity_feed",
	"calendar_list_events",
	"card_list",
	"email_get_thread",
	"email_list",
	"email_refresh",
	"email_tagged_today",
	"google_get_auth_url",
	"google_save_auth_code",
	"tag_list",
}

var writeTools = []string{
	"calendar_create_event",
	"calendar_delete_event",
	"calendar_toggle_tag",
	"calendar_update_event",
	"card_create",
	"card_delete",
	"card_toggle_tag",
	"card_update",
	"email_modify",
	"email_send",
	"email_toggle_star",
	"email_toggle_tag",
	"tag_create",
	"tag_delete",
	"tag_update",
}

func registeredTools(t *testing.T, readOnly bool) []string {
	t.Helper()
	sc := server.NewServerContext(context.Background(), server.Options{})
	t.Cleanup(func() { _ = sc.Shutdown() })

	mcpSrv := mcpserver.NewMCPServer("tagdeck", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, registerAllTools(mcpSrv, sc, readOnly))

	names := make([]string, 0)
	for name := range mcpSrv.ListTools() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func TestRegisterAllTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     []string
	}{
		{
			name:     "read-only",
			readOnly: true,
			want:     readOnlyTools,
		},
		{
			name:     "yolo",
			readOnly: false,
			want:     append(append([]string{}, readOnlyTools...), writeTools...),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, registeredTools(t, tt.readOnly))
		})
	}
}

func TestGetCategoryFromToolName(t *testing.T) {
	tests := []struct {
		tool string
		want string
	}{
		{tool: "tag_list", want: "Tag Tools"},
		{tool: "email_send", want: "Email Tools"},
		{tool: "calendar_list_events", want: "Calendar Tools"},
		{tool: "card_toggle_tag", want: "Card Tools"},
		{tool: "activity_feed", want: "Activity Tools"},
		{tool: "google_save_auth_code", want: "Google Account Tools"},
		{tool: "unknown", want: "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			assert.Equal(t, tt.want, getCategoryFromToolName(tt.tool))
		})
	}
}

func TestGenerateToolsMarkdown(t *testing.T) {
	tools := []mcp.Tool{
		mcp.NewTool("tag_create",
			mcp.WithDescription("Create a tag"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Tag name")),
			mcp.WithString("type", mcp.Enum("email", "calendar")),
		),
		mcp.NewTool("activity_feed", mcp.WithDescription("Recent activity")),
		mcp.NewTool("misc_tool"),
	}

	md := generateToolsMarkdown(tools, map[string]bool{"tag_create": true})

	assert.Contains(t, md, "- [Tag Tools](#tag-tools)")
	assert.Contains(t, md, "- [Activity Tools](#activity-tools)")
	assert.Contains(t, md, "- [Other](#other)")
	assert.NotContains(t, md, "## Email Tools")
	assert.Contains(t, md, "### tag_create\n\nCreate a tag\n\n**Mode:** write (requires `--yolo`)")
	assert.Contains(t, md, "### activity_feed\n\nRecent activity\n\n**Mode:** read-only")
	assert.Contains(t, md, "- `name` (required): Tag name\n")
	assert.Contains(t, md, "- `type` (optional): string parameter (one of: email, calendar)\n")

	// Sections follow the fixed category order, not the alphabet.
	assert.Less(t, strings.Index(md, "## Tag Tools"), strings.Index(md, "## Activity Tools"))
	assert.Less(t, strings.Index(md, "## Activity Tools"), strings.Index(md, "## Other"))
}

func TestListTools(t *testing.T) {
	readOnly, err := listTools(true)
	require.NoError(t, err)
	all, err := listTools(false)
	require.NoError(t, err)
	assert.Len(t, readOnly, len(readOnlyTools))
	assert.Len(t, all, len(readOnlyTools)+len(writeTools))
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	s, err := openStore(ctx, config.StoreConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "tagdeck.db"),
	}, nil)
	require.NoError(t, err)
	assert.NoError(t, s.Ping(ctx))
	assert.NoError(t, s.Close())

	_, err = openStore(ctx, config.StoreConfig{Driver: "mysql", DSN: "x"}, nil)
	assert.ErrorContains(t, err, "unsupported store driver")
}

func TestNewSessionBus_Local(t *testing.T) {
	bus, err := newSessionBus(context.Background(), config.SessionConfig{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })

	_, ok := bus.(*session.LocalBus)
	assert.True(t, ok)
}
