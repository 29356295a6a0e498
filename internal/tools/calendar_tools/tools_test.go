package calendar_tools

import (
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/tagdeck/internal/calendar"
	"github.com/teemow/tagdeck/internal/dashboard"
	"github.com/teemow/tagdeck/internal/reader"
	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/tools/tooltest"
)

func setup(t *testing.T, readOnly bool) *tooltest.Env {
	return tooltest.New(t, func(s *mcpserver.MCPServer, sc *server.ServerContext) error {
		return RegisterCalendarTools(s, sc, readOnly)
	})
}

func TestRegisterCalendarTools_ReadOnly(t *testing.T) {
	tools := setup(t, true).MCP.ListTools()
	assert.Contains(t, tools, "calendar_list_events")
	assert.NotContains(t, tools, "calendar_create_event")
	assert.NotContains(t, tools, "calendar_toggle_tag")
}

func TestCalendarListEvents_Filter(t *testing.T) {
	env := setup(t, false)
	start := time.Now().UTC().Truncate(time.Hour).Add(time.Hour)
	env.Clients.Cal.Events = []calendar.Event{
		{ID: "A", Summary: "Standup", Start: start, End: start.Add(time.Hour)},
		{ID: "B", Summary: "Review", Start: start, End: start.Add(time.Hour)},
		{ID: "C", Summary: "Lunch", Start: start, End: start.Add(time.Hour)},
	}

	urgent, err := env.Service.CreateTag(env.Ctx, tooltest.UserID, dashboard.TagInput{Name: "Urgent", Type: "priority"})
	require.NoError(t, err)
	work, err := env.Service.CreateTag(env.Ctx, tooltest.UserID, dashboard.TagInput{Name: "Work", Type: "pin"})
	require.NoError(t, err)

	toggle := func(eventID, tagID string) {
		res := env.Call(t, "calendar_toggle_tag", map[string]interface{}{"eventId": eventID, "tagId": tagID})
		require.False(t, res.IsError, tooltest.Text(res))
		assert.Contains(t, tooltest.Text(res), "attached")
	}
	toggle("A", urgent.ID)
	toggle("B", urgent.ID)
	toggle("B", work.ID)

	tests := []struct {
		name string
		args map[string]interface{}
		want []string
	}{
		{name: "no filter", args: nil, want: []string{"A", "B", "C"}},
		{name: "any", args: map[string]interface{}{"tags": urgent.ID + "," + work.ID}, want: []string{"A", "B"}},
		{name: "all", args: map[string]interface{}{"tags": []interface{}{urgent.ID, work.ID}, "mode": "all"}, want: []string{"B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []reader.Event
			tooltest.Decode(t, env.Call(t, "calendar_list_events", tt.args), &events)
			ids := make([]string, len(events))
			for i, ev := range events {
				ids[i] = ev.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestCalendarListEvents_InvalidWindow(t *testing.T) {
	env := setup(t, true)

	res := env.Call(t, "calendar_list_events", map[string]interface{}{"from": "yesterday"})
	assert.True(t, res.IsError)

	res = env.Call(t, "calendar_list_events", map[string]interface{}{
		"from": "2026-10-10T00:00:00Z",
		"to":   "2026-10-09T00:00:00Z",
	})
	assert.True(t, res.IsError)
	assert.Contains(t, tooltest.Text(res), "to must be after from")
}

func TestCalendarEventWrites(t *testing.T) {
	env := setup(t, false)

	var ev reader.Event
	tooltest.Decode(t, env.Call(t, "calendar_create_event", map[string]interface{}{
		"summary":   "Planning",
		"start":     "2026-10-20T09:00:00Z",
		"end":       "2026-10-20T10:00:00Z",
		"attendees": "a@example.com, b@example.com",
	}), &ev)
	assert.Equal(t, "new", ev.ID)
	require.Len(t, env.Clients.Cal.Created, 1)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, env.Clients.Cal.Created[0].Attendees)

	res := env.Call(t, "calendar_create_event", map[string]interface{}{
		"summary": "Backwards",
		"start":   "2026-10-20T10:00:00Z",
		"end":     "2026-10-20T09:00:00Z",
	})
	assert.True(t, res.IsError)

	tooltest.Decode(t, env.Call(t, "calendar_update_event", map[string]interface{}{
		"eventId": "evt-1",
		"summary": "Planning v2",
		"start":   "2026-10-20T09:00:00Z",
		"end":     "2026-10-20T11:00:00Z",
	}), &ev)
	assert.Equal(t, "evt-1", ev.ID)
	assert.Equal(t, "Planning v2", ev.Summary)

	res = env.Call(t, "calendar_delete_event", map[string]interface{}{"eventId": "evt-1"})
	require.False(t, res.IsError, tooltest.Text(res))
	assert.Equal(t, []string{"evt-1"}, env.Clients.Cal.Deleted)
}
