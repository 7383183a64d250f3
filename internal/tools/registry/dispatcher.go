package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"slices"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
)

// InvalidArgumentsPrefix starts every validation failure message.
const InvalidArgumentsPrefix = "invalid arguments: "

// FormatEmail marks a string property as an email address. The dispatcher
// parses it with net/mail.
func FormatEmail() mcp.PropertyOption {
	return func(schema map[string]any) {
		schema["format"] = "email"
	}
}

// Middleware returns the tool dispatcher: it validates the call against the
// registered schema and only invokes the handler when validation passes.
// Calls to unknown tools are passed through unchanged.
func (r *Registry) Middleware(metrics *instrumentation.Metrics) mcpserver.ToolHandlerMiddleware {
	return func(next mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
		return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			tool, ok := r.Lookup(request.Params.Name)
			if !ok {
				return next(ctx, request)
			}
			if problems := Validate(tool.InputSchema, request.GetArguments()); len(problems) > 0 {
				metrics.RecordValidationFailure(ctx, tool.Name, problems[0].Reason)
				return mcp.NewToolResultError(InvalidArgumentsPrefix + joinProblems(problems)), nil
			}
			return next(ctx, request)
		}
	}
}

// Problem is one argument that failed validation.
type Problem struct {
	Argument string
	Reason   string
	Message  string
}

func (p Problem) String() string {
	return p.Argument + " " + p.Message
}

func joinProblems(problems []Problem) string {
	parts := make([]string, len(problems))
	for i, p := range problems {
		parts[i] = p.String()
	}
	return strings.Join(parts, "; ")
}

// Validate checks args against schema and returns the problems found, sorted
// by argument name.
func Validate(schema mcp.ToolInputSchema, args map[string]any) []Problem {
	var problems []Problem

	for _, name := range schema.Required {
		v, ok := args[name]
		if !ok || v == nil {
			problems = append(problems, Problem{name, "missing", "is required"})
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			problems = append(problems, Problem{name, "empty", "must not be empty"})
		}
	}

	for name, v := range args {
		if v == nil {
			continue
		}
		prop, ok := schema.Properties[name].(map[string]any)
		if !ok {
			continue
		}
		if p, bad := checkProperty(name, prop, v); bad {
			problems = append(problems, p)
		}
	}

	sort.SliceStable(problems, func(i, j int) bool { return problems[i].Argument < problems[j].Argument })
	return problems
}

func checkProperty(name string, prop map[string]any, v any) (Problem, bool) {
	typ, _ := prop["type"].(string)
	if !matchesType(typ, v) {
		return Problem{name, "type", "must be of type " + typ}, true
	}

	if enum := enumValues(prop["enum"]); len(enum) > 0 {
		if s, ok := v.(string); ok && !slices.Contains(enum, s) {
			return Problem{name, "enum", "must be one of " + strings.Join(enum, ", ")}, true
		}
	}

	if n, ok := number(v); ok {
		if lo, ok := number(prop["minimum"]); ok && n < lo {
			return Problem{name, "range", fmt.Sprintf("must be >= %v", lo)}, true
		}
		if hi, ok := number(prop["maximum"]); ok && n > hi {
			return Problem{name, "range", fmt.Sprintf("must be <= %v", hi)}, true
		}
	}

	if s, ok := v.(string); ok {
		if minLen, ok := number(prop["minLength"]); ok && float64(len([]rune(s))) < minLen {
			return Problem{name, "length", fmt.Sprintf("must be at least %v characters", minLen)}, true
		}
		if prop["format"] == "email" && s != "" {
			if _, err := mail.ParseAddress(s); err != nil {
				return Problem{name, "format", "must be a valid email address"}, true
			}
		}
	}
	return Problem{}, false
}

func matchesType(typ string, v any) bool {
	switch typ {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		_, ok := number(v)
		return ok
	case "integer":
		n, ok := number(v)
		return ok && n == math.Trunc(n)
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	}
	return true
}

func enumValues(raw any) []string {
	switch vals := raw.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, v := range vals {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// number accepts decoded JSON numbers as well as Go numeric values passed by
// in-process callers.
func number(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
