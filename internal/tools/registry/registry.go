package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Akasxh/mcp-server-daily/internal/server"
	"github.com/Akasxh/mcp-server-daily/internal/tools/common"
)

// ErrDuplicateTool is returned when a tool name is registered twice.
var ErrDuplicateTool = errors.New("tool already registered")

// Entry is one registered tool.
type Entry struct {
	Tool    mcp.Tool
	Group   string
	Service string
	handler mcpserver.ToolHandlerFunc
}

// Registry maps tool names to their definitions and handlers. Definitions are
// immutable once added.
type Registry struct {
	sc *server.ServerContext

	mu    sync.RWMutex
	tools map[string]Entry
}

// New creates an empty registry. sc supplies instrumentation for handlers.
func New(sc *server.ServerContext) *Registry {
	return &Registry{sc: sc, tools: make(map[string]Entry)}
}

// Add registers a tool under group. service names the upstream it calls.
func (r *Registry) Add(group string, tool mcp.Tool, service string, handler mcpserver.ToolHandlerFunc) error {
	if tool.Name == "" {
		return fmt.Errorf("tool in group %s has no name", group)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.tools[tool.Name]; ok {
		return fmt.Errorf("%w: %s (group %s, already in %s)", ErrDuplicateTool, tool.Name, group, existing.Group)
	}
	r.tools[tool.Name] = Entry{
		Tool:    tool,
		Group:   group,
		Service: service,
		handler: common.InstrumentedToolHandler(tool.Name, service, r.sc, handler),
	}
	return nil
}

// Lookup returns the definition of name.
func (r *Registry) Lookup(name string) (mcp.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[name]
	return e.Tool, ok
}

// Handler returns the instrumented handler of name, or nil.
func (r *Registry) Handler(name string) mcpserver.ToolHandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name].handler
}

// Tools returns all entries sorted by tool name.
func (r *Registry) Tools() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.tools))
	for _, e := range r.tools {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Tool.Name < entries[j].Tool.Name })
	return entries
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Install adds every registered tool to s.
func (r *Registry) Install(s *mcpserver.MCPServer) {
	entries := r.Tools()
	tools := make([]mcpserver.ServerTool, 0, len(entries))
	for _, e := range entries {
		tools = append(tools, mcpserver.ServerTool{Tool: e.Tool, Handler: e.handler})
	}
	s.AddTools(tools...)
}
