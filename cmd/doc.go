// Package cmd implements the command-line interface for mcp-server-daily.
//
// This package provides the following commands:
//   - serve: Start the MCP server (stdio, sse or streamable-http)
//   - tools: List every registered tool in a table
//   - generate-docs: Generate markdown or HTML documentation for all MCP tools
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
