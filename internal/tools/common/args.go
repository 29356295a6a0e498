package common

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/tagdeck/internal/tagfilter"
)

// StringArg returns a string argument, or "" when absent or not a string.
func StringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return strings.TrimSpace(s)
}

// BoolArg returns a boolean argument, or false when absent.
func BoolArg(args map[string]interface{}, name string) bool {
	b, _ := args[name].(bool)
	return b
}

// IntArg returns a non-negative integer argument. JSON numbers arrive as float64.
func IntArg(args map[string]interface{}, name string) (int, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, nil
	}
	f, ok := v.(float64)
	if !ok || f < 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return int(f), nil
}

// TimeArg returns an optional RFC 3339 argument.
func TimeArg(args map[string]interface{}, name string) (time.Time, error) {
	s := StringArg(args, name)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp", name)
	}
	return t, nil
}

// StringListArg accepts a comma-separated string or an array of strings.
// Blank entries are skipped.
func StringListArg(args map[string]interface{}, name string) ([]string, error) {
	var raw []string
	switch v := args[name].(type) {
	case nil:
		return nil, nil
	case string:
		raw = strings.Split(v, ",")
	case []interface{}:
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", name, i)
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", name)
	}

	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// SelectionArg reads a tag filter from the "tags" and "mode" arguments.
func SelectionArg(args map[string]interface{}) (tagfilter.Selection, error) {
	mode, err := tagfilter.ParseMode(StringArg(args, "mode"))
	if err != nil {
		return tagfilter.Selection{}, err
	}
	ids, err := StringListArg(args, "tags")
	if err != nil {
		return tagfilter.Selection{}, err
	}
	return tagfilter.NewSelection(ids, mode), nil
}

// WithTagFilter adds the "tags" and "mode" arguments SelectionArg reads.
func WithTagFilter() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("tags",
			mcp.Description("Comma-separated tag ids to filter by. Empty shows everything."),
		),
		mcp.WithString("mode",
			mcp.Description("How several tags combine: 'any' (default) keeps items with at least one, 'all' keeps items with every tag"),
			mcp.Enum(string(tagfilter.ModeAny), string(tagfilter.ModeAll)),
		),
	}
}

// JSONResult renders v as indented JSON text.
func JSONResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
