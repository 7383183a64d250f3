// Package registry collects tool definitions from the tool groups, installs
// them on the MCP server and validates every call's arguments against the
// declared input schema before the handler runs.
package registry
