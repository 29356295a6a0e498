// Package tooltest wires a dashboard service on a temporary sqlite store
// behind an MCP server for the tool package tests.
package tooltest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/teemow/tagdeck/internal/calendar"
	"github.com/teemow/tagdeck/internal/dashboard"
	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/gmail"
	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/session"
	"github.com/teemow/tagdeck/internal/store/sqlite"
)

// UserID is the signed-in user of Env.Ctx.
const UserID = "user-1"

// Mailbox serves two inbox pages: m1 and m2, then m3.
type Mailbox struct {
	mu        sync.Mutex
	ModifyErr error
	Modified  []string
	Sent      []*gmail.EmailMessage
}

func (m *Mailbox) ListMessageIDs(_ context.Context, opts gmail.ListOptions) (*gmail.Page, error) {
	switch opts.PageToken {
	case "":
		return &gmail.Page{IDs: []string{"m1", "m2"}, NextPageToken: "p2"}, nil
	case "p2":
		return &gmail.Page{IDs: []string{"m3"}}, nil
	}
	return &gmail.Page{}, nil
}

func (m *Mailbox) GetMessages(_ context.Context, ids []string) ([]*gmail.Message, error) {
	out := make([]*gmail.Message, len(ids))
	for i, id := range ids {
		out[i] = &gmail.Message{ID: id, ThreadID: "t-" + id, Subject: "subject " + id,
			LabelIDs: []string{gmail.LabelInbox, gmail.LabelUnread}, Unread: true}
	}
	return out, nil
}

func (m *Mailbox) GetThread(_ context.Context, threadID string) ([]*gmail.Message, error) {
	return []*gmail.Message{{ID: "m1", ThreadID: threadID}}, nil
}

func (m *Mailbox) SendEmail(_ context.Context, msg *gmail.EmailMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return "sent-1", nil
}

func (m *Mailbox) ModifyLabels(_ context.Context, id string, _, _ []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ModifyErr != nil {
		return m.ModifyErr
	}
	m.Modified = append(m.Modified, id)
	return nil
}

// Calendar returns Events from every list call.
type Calendar struct {
	Events  []calendar.Event
	Created []calendar.EventInput
	Deleted []string
}

func (c *Calendar) ListEvents(context.Context, string, time.Time, time.Time) ([]calendar.Event, error) {
	return c.Events, nil
}

func (c *Calendar) ListUpdatedSince(context.Context, string, time.Time, int) ([]calendar.Event, error) {
	return c.Events, nil
}

func (c *Calendar) CreateEvent(_ context.Context, _ string, in calendar.EventInput) (*calendar.Event, error) {
	c.Created = append(c.Created, in)
	return &calendar.Event{ID: "new", Summary: in.Summary, Start: in.Start, End: in.End}, nil
}

func (c *Calendar) UpdateEvent(_ context.Context, _, id string, in calendar.EventInput) (*calendar.Event, error) {
	return &calendar.Event{ID: id, Summary: in.Summary, Start: in.Start, End: in.End}, nil
}

func (c *Calendar) DeleteEvent(_ context.Context, _, id string) error {
	c.Deleted = append(c.Deleted, id)
	return nil
}

// Clients hands out Mailbox and Calendar, or a credential-expired error when Expired is set.
type Clients struct {
	Mail    *Mailbox
	Cal     *Calendar
	Expired bool
}

func (c *Clients) Mailbox(context.Context, string) (dashboard.Mailbox, error) {
	if c.Expired {
		return nil, apperrors.CredentialExpired("no provider token for user")
	}
	return c.Mail, nil
}

func (c *Clients) Calendar(context.Context, string) (dashboard.Calendar, error) {
	if c.Expired {
		return nil, apperrors.CredentialExpired("no provider token for user")
	}
	return c.Cal, nil
}

func (c *Clients) Forget(string) {}

// Env is an MCP server with tools registered against a live dashboard service.
type Env struct {
	// Ctx carries the session of UserID.
	Ctx     context.Context
	MCP     *mcpserver.MCPServer
	SC      *server.ServerContext
	Service *dashboard.Service
	Store   *sqlite.Store
	Clients *Clients
}

// New builds an Env. register adds the tools under test.
func New(t *testing.T, register func(s *mcpserver.MCPServer, sc *server.ServerContext) error) *Env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "tools.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clients := &Clients{Mail: &Mailbox{}, Cal: &Calendar{}}
	svc := dashboard.New(dashboard.Config{Store: db, Clients: clients, Logger: logger})

	sc := server.NewServerContext(context.Background(), server.Options{Logger: logger})
	sc.SetService(svc)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("tagdeck-test", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, register(s, sc))

	ctx := session.WithState(context.Background(), &session.State{
		UserID:            UserID,
		Email:             "jane@example.com",
		GmailConnected:    true,
		CalendarConnected: true,
	})
	return &Env{Ctx: ctx, MCP: s, SC: sc, Service: svc, Store: db, Clients: clients}
}

// Call invokes a registered tool as UserID.
func (e *Env) Call(t *testing.T, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	return e.CallWithContext(t, e.Ctx, name, args)
}

// CallWithContext invokes a registered tool with ctx.
func (e *Env) CallWithContext(t *testing.T, ctx context.Context, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	tool, ok := e.MCP.ListTools()[name]
	require.True(t, ok, "tool %s is not registered", name)

	result, err := tool.Handler(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

// Text returns the text of the first content item.
func Text(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(mcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

// Decode unmarshals the JSON text of a successful result into v.
func Decode(t *testing.T, result *mcp.CallToolResult, v interface{}) {
	t.Helper()
	require.False(t, result.IsError, "tool failed: %s", Text(result))
	require.NoError(t, json.Unmarshal([]byte(Text(result)), v))
}
