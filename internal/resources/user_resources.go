package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/session"
)

const (
	ProfileURI = "user://profile"
	TagsURI    = "user://tags"
)

// RegisterUserResources registers resources describing the signed-in user.
func RegisterUserResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	profileResource := mcp.NewResource(
		ProfileURI,
		"Current User Profile",
		mcp.WithResourceDescription("The signed-in user and which Google services are connected"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(profileResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleUserProfile(ctx, request)
	})

	tagsResource := mcp.NewResource(
		TagsURI,
		"Tags",
		mcp.WithResourceDescription("The user's email, calendar and project tags with their ids"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(tagsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleTags(ctx, request, sc)
	})

	return nil
}

func stateFromContext(ctx context.Context) (*session.State, error) {
	st, ok := session.FromContext(ctx)
	if !ok || st.UserID == "" {
		return nil, fmt.Errorf("not signed in")
	}
	return st, nil
}

func handleUserProfile(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st, err := stateFromContext(ctx)
	if err != nil {
		return nil, err
	}

	profileData := map[string]interface{}{
		"userId":            st.UserID,
		"email":             st.Email,
		"gmailConnected":    st.GmailConnected,
		"calendarConnected": st.CalendarConnected,
	}
	return jsonContents(request.Params.URI, profileData)
}

func handleTags(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	st, err := stateFromContext(ctx)
	if err != nil {
		return nil, err
	}
	svc := sc.Service()
	if svc == nil {
		return nil, fmt.Errorf("dashboard service is not available")
	}

	tags, err := svc.ListTags(ctx, st.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return jsonContents(request.Params.URI, tags)
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
