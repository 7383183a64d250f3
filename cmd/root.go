package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mcp-server-daily application
var rootCmd = &cobra.Command{
	Use:   "mcp-server-daily",
	Short: "OAuth-protected MCP server with everyday assistant tools",
	Long: `mcp-server-daily is a Model Context Protocol server that exposes Gmail,
Google Drive and Google Calendar tools together with utilities, expense
tracking, news, translation and Spotify control.

Remote clients authenticate through the built-in OAuth gateway or with the
pre-shared bearer token configured in AUTH_TOKEN.

It can run as:
  - An MCP server over streamable HTTP or SSE (default: serve)
  - An MCP server over stdio for local clients`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcp-server-daily version %s\n" .Version}}`)

	// If no subcommand is provided, run the server
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
