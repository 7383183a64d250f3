package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Akasxh/mcp-server-daily/internal/tools/assistant_tools"
	"github.com/Akasxh/mcp-server-daily/internal/tools/calendar_tools"
	"github.com/Akasxh/mcp-server-daily/internal/tools/drive_tools"
	"github.com/Akasxh/mcp-server-daily/internal/tools/expense_tools"
	"github.com/Akasxh/mcp-server-daily/internal/tools/gmail_tools"
	"github.com/Akasxh/mcp-server-daily/internal/tools/news_tools"
	"github.com/Akasxh/mcp-server-daily/internal/tools/puch_tools"
	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
	"github.com/Akasxh/mcp-server-daily/internal/tools/spotify_tools"
	"github.com/Akasxh/mcp-server-daily/internal/tools/utility_tools"
)

// groupTitles orders and names tool groups in generated documentation.
var groupTitles = []struct {
	group string
	title string
}{
	{puch_tools.Group, "Puch Tools"},
	{gmail_tools.Group, "Gmail Tools"},
	{drive_tools.Group, "Google Drive Tools"},
	{calendar_tools.Group, "Google Calendar Tools"},
	{utility_tools.Group, "Utility Tools"},
	{expense_tools.Group, "Expense Tools"},
	{news_tools.Group, "News Tools"},
	{spotify_tools.Group, "Spotify Tools"},
	{assistant_tools.Group, "Assistant Tools"},
}

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
		asHTML     bool
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations. Use --html to render it as HTML.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile, asHTML)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render the documentation as HTML")

	return cmd
}

func runGenerateDocs(outputFile string, asHTML bool) error {
	r, cleanup, err := offlineRegistry(context.Background())
	if err != nil {
		return err
	}
	defer cleanup()

	doc := []byte(generateToolsMarkdown(r.Tools()))
	if asHTML {
		if doc, err = renderHTML(doc); err != nil {
			return err
		}
	}

	// Write to output
	if outputFile != "" {
		if err := os.WriteFile(outputFile, doc, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(string(doc))
	}

	return nil
}

func renderHTML(markdown []byte) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>MCP Tools Reference</title></head><body>\n")
	if err := md.Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("failed to render HTML: %w", err)
	}
	buf.WriteString("</body></html>\n")
	return buf.Bytes(), nil
}

func generateToolsMarkdown(entries []registry.Entry) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running mcp-server-daily as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	byGroup := make(map[string][]mcp.Tool)
	for _, e := range entries {
		byGroup[e.Group] = append(byGroup[e.Group], e.Tool)
	}

	// Table of contents
	sb.WriteString("## Table of Contents\n\n")
	for _, g := range groupTitles {
		if len(byGroup[g.group]) == 0 {
			continue
		}
		anchor := strings.ToLower(strings.ReplaceAll(g.title, " ", "-"))
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", g.title, anchor))
	}
	sb.WriteString("\n")

	sb.WriteString("## Authentication\n\n")
	sb.WriteString("Over HTTP every call needs a bearer token, either issued by the built-in OAuth flow or the static `AUTH_TOKEN`. ")
	sb.WriteString("Gmail, Drive and Calendar tools use the Google access token of the authenticated session.\n\n")

	for _, g := range groupTitles {
		tools := byGroup[g.group]
		if len(tools) == 0 {
			continue
		}
		sort.Slice(tools, func(i, j int) bool {
			return tools[i].Name < tools[j].Name
		})

		sb.WriteString(fmt.Sprintf("## %s\n\n", g.title))
		for _, tool := range tools {
			sb.WriteString(generateToolMarkdown(tool))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	// Tool name
	sb.WriteString(fmt.Sprintf("### %s\n\n", tool.Name))

	// Description
	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}

	// Input schema
	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		// Sort properties for consistent output
		propNames := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, name := range propNames {
			propMap, ok := tool.InputSchema.Properties[name].(map[string]any)
			if !ok {
				continue
			}

			requiredStr := "optional"
			if contains(tool.InputSchema.Required, name) {
				requiredStr = "required"
			}

			propType := getPropertyType(propMap)
			sb.WriteString(fmt.Sprintf("- `%s` (%s, %s): ", name, propType, requiredStr))

			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			} else {
				sb.WriteString(fmt.Sprintf("%s parameter", propType))
			}
			if enum, ok := propMap["enum"].([]string); ok && len(enum) > 0 {
				sb.WriteString(fmt.Sprintf(" One of: `%s`.", strings.Join(enum, "`, `")))
			}
			if def, ok := propMap["default"]; ok {
				sb.WriteString(fmt.Sprintf(" Default: `%v`.", def))
			}

			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
