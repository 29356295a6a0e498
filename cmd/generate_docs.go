package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/tagdeck/internal/server"
)

// toolCategories lists the documentation sections in display order, keyed by
// tool name prefix.
var toolCategories = []struct {
	prefix string
	title  string
}{
	{"tag", "Tag Tools"},
	{"email", "Email Tools"},
	{"calendar", "Calendar Tools"},
	{"card", "Card Tools"},
	{"activity", "Activity Tools"},
	{"google", "Google Account Tools"},
}

const otherCategory = "Other"

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate a markdown reference of every MCP tool from the registered
definitions, marking the tools that are only available with --yolo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	readOnly, err := listTools(true)
	if err != nil {
		return err
	}
	all, err := listTools(false)
	if err != nil {
		return err
	}

	writes := make(map[string]bool, len(all))
	for _, tool := range all {
		writes[tool.Name] = !slices.ContainsFunc(readOnly, func(t mcp.Tool) bool { return t.Name == tool.Name })
	}

	markdown := generateToolsMarkdown(all, writes)

	if outputFile == "" {
		fmt.Print(markdown)
		return nil
	}
	if err := os.WriteFile(outputFile, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	return nil
}

// listTools registers the tool set of one mode on a throwaway server. No store
// or tokens are needed for registration.
func listTools(readOnly bool) ([]mcp.Tool, error) {
	sc := server.NewServerContext(context.Background(), server.Options{})
	defer func() { _ = sc.Shutdown() }()

	mcpSrv := mcpserver.NewMCPServer("tagdeck", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
	if err := registerAllTools(mcpSrv, sc, readOnly); err != nil {
		return nil, err
	}

	tools := make([]mcp.Tool, 0)
	for _, st := range mcpSrv.ListTools() {
		tools = append(tools, st.Tool)
	}
	return tools, nil
}

func generateToolsMarkdown(tools []mcp.Tool, writes map[string]bool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document lists every tool tagdeck serves on its MCP endpoint. ")
	sb.WriteString("It is generated from the tool definitions with `tagdeck generate-docs`.\n\n")

	sb.WriteString("## Authentication and Modes\n\n")
	sb.WriteString("- **Bearer token:** Every call needs the same session token as the HTTP API\n")
	sb.WriteString("- **Read-only by default:** Tools marked *write* are only registered when the server runs with `--yolo`\n")
	sb.WriteString("- **Tag filters:** List tools accept `tags` (tag ids) and `mode` (`any` or `all`)\n\n")

	grouped := groupToolsByCategory(tools)
	titles := make([]string, 0, len(toolCategories)+1)
	for _, c := range toolCategories {
		if len(grouped[c.title]) > 0 {
			titles = append(titles, c.title)
		}
	}
	if len(grouped[otherCategory]) > 0 {
		titles = append(titles, otherCategory)
	}

	sb.WriteString("## Contents\n\n")
	for _, title := range titles {
		anchor := strings.ToLower(strings.ReplaceAll(title, " ", "-"))
		fmt.Fprintf(&sb, "- [%s](#%s)\n", title, anchor)
	}
	sb.WriteString("\n")

	for _, title := range titles {
		categoryTools := grouped[title]
		sort.Slice(categoryTools, func(i, j int) bool { return categoryTools[i].Name < categoryTools[j].Name })

		fmt.Fprintf(&sb, "## %s\n\n", title)
		for _, tool := range categoryTools {
			sb.WriteString(generateToolMarkdown(tool, writes[tool.Name]))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func groupToolsByCategory(tools []mcp.Tool) map[string][]mcp.Tool {
	grouped := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		title := getCategoryFromToolName(tool.Name)
		grouped[title] = append(grouped[title], tool)
	}
	return grouped
}

func getCategoryFromToolName(name string) string {
	prefix, _, _ := strings.Cut(name, "_")
	for _, c := range toolCategories {
		if c.prefix == prefix {
			return c.title
		}
	}
	return otherCategory
}

func generateToolMarkdown(tool mcp.Tool, write bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}
	if write {
		sb.WriteString("**Mode:** write (requires `--yolo`)\n\n")
	} else {
		sb.WriteString("**Mode:** read-only\n\n")
	}

	if len(tool.InputSchema.Properties) == 0 {
		return sb.String()
	}

	sb.WriteString("**Arguments:**\n")
	names := make([]string, 0, len(tool.InputSchema.Properties))
	for name := range tool.InputSchema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop, ok := tool.InputSchema.Properties[name].(map[string]interface{})
		if !ok {
			continue
		}

		required := "optional"
		if slices.Contains(tool.InputSchema.Required, name) {
			required = "required"
		}

		fmt.Fprintf(&sb, "- `%s` (%s): ", name, required)
		if desc, ok := prop["description"].(string); ok {
			sb.WriteString(desc)
		} else {
			fmt.Fprintf(&sb, "%s parameter", propertyType(prop))
		}
		if values, ok := prop["enum"].([]string); ok && len(values) > 0 {
			fmt.Fprintf(&sb, " (one of: %s)", strings.Join(values, ", "))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func propertyType(prop map[string]interface{}) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
