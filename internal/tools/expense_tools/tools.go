package expense_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Akasxh/mcp-server-daily/internal/expenses"
	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/server"
	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
)

// Group is the registry group of the expense tools.
const Group = "expenses"

// MsgRecorded confirms a stored expense.
const MsgRecorded = "Expense recorded"

// timestampLayouts are accepted for add_expense's optional timestamp.
var timestampLayouts = []string{expenses.TimestampLayout, time.RFC3339, "2006-01-02"}

// RegisterExpenseTools registers the expense tracker tools.
func RegisterExpenseTools(r *registry.Registry, sc *server.ServerContext) error {
	phone := mcp.WithString("phone", mcp.Required(), mcp.Description("Phone number identifying the user"))

	tools := []struct {
		tool    mcp.Tool
		handler mcpserver.ToolHandlerFunc
	}{
		{
			tool: mcp.NewTool("add_expense",
				mcp.WithDescription("Record an expense"),
				phone,
				mcp.WithNumber("amount", mcp.Required(), mcp.Description("Amount spent, greater than zero")),
				mcp.WithString("category", mcp.Required(), mcp.Description("Category such as lunch or travel")),
				mcp.WithString("timestamp", mcp.Description("When it was spent, YYYY-MM-DDTHH:MM:SS or YYYY-MM-DD (default: now)")),
			),
			handler: withStore(sc, func(ctx context.Context, store *expenses.Store, request mcp.CallToolRequest) *mcp.CallToolResult {
				e := expenses.Expense{
					Phone:    request.GetString("phone", ""),
					Amount:   request.GetFloat("amount", 0),
					Category: strings.ToLower(request.GetString("category", "")),
				}
				if raw := strings.TrimSpace(request.GetString("timestamp", "")); raw != "" {
					ts, err := parseTimestamp(raw, store.Now().Location())
					if err != nil {
						return mcp.NewToolResultError(err.Error())
					}
					e.Timestamp = ts
				}
				if _, err := store.Add(ctx, e); err != nil {
					return failure(err)
				}
				return mcp.NewToolResultText(MsgRecorded)
			}),
		},
		{
			tool: mcp.NewTool("log_expense_message",
				mcp.WithDescription("Record an expense from a chat message such as 'Spent ₹250 on lunch yesterday'"),
				phone,
				mcp.WithString("message", mcp.Required(), mcp.Description("The message to parse")),
			),
			handler: withStore(sc, func(ctx context.Context, store *expenses.Store, request mcp.CallToolRequest) *mcp.CallToolResult {
				e, err := expenses.ParseMessage(request.GetString("message", ""), store.Now())
				if err != nil {
					return failure(err)
				}
				e.Phone = request.GetString("phone", "")
				saved, err := store.Add(ctx, e)
				if err != nil {
					return failure(err)
				}
				return mcp.NewToolResultText(fmt.Sprintf("%s: %.2f on %s (%s)",
					MsgRecorded, saved.Amount, saved.Category, saved.Timestamp.Format("2006-01-02")))
			}),
		},
		{
			tool: mcp.NewTool("weekly_summary",
				mcp.WithDescription("Total spending per category since Monday, as JSON"),
				phone,
			),
			handler: withStore(sc, func(ctx context.Context, store *expenses.Store, request mcp.CallToolRequest) *mcp.CallToolResult {
				totals, err := store.WeeklySummary(ctx, request.GetString("phone", ""))
				if err != nil {
					return failure(err)
				}
				return totalsResult(totals)
			}),
		},
		{
			tool: mcp.NewTool("monthly_breakdown",
				mcp.WithDescription("Spending in one category per day of the current month, as JSON"),
				phone,
				mcp.WithString("category", mcp.Required(), mcp.Description("Category to break down")),
			),
			handler: withStore(sc, func(ctx context.Context, store *expenses.Store, request mcp.CallToolRequest) *mcp.CallToolResult {
				totals, err := store.MonthlyBreakdown(ctx,
					request.GetString("phone", ""),
					strings.ToLower(request.GetString("category", "")))
				if err != nil {
					return failure(err)
				}
				return totalsResult(totals)
			}),
		},
		{
			tool: mcp.NewTool("export_expenses",
				mcp.WithDescription("Export all of the user's expenses as CSV or JSON"),
				phone,
				mcp.WithString("format", mcp.Enum("csv", "json"), mcp.Description("Export format (default: csv)")),
			),
			handler: withStore(sc, func(ctx context.Context, store *expenses.Store, request mcp.CallToolRequest) *mcp.CallToolResult {
				doc, err := store.Export(ctx, request.GetString("phone", ""), request.GetString("format", "csv"))
				if err != nil {
					return failure(err)
				}
				return mcp.NewToolResultText(doc)
			}),
		},
	}

	for _, t := range tools {
		if err := r.Add(Group, t.tool, instrumentation.ServiceExpenses, t.handler); err != nil {
			return err
		}
	}
	return nil
}

type storeHandler func(ctx context.Context, store *expenses.Store, request mcp.CallToolRequest) *mcp.CallToolResult

// withStore resolves the expense store before running h. The store may be
// unavailable when the database could not be opened at startup.
func withStore(sc *server.ServerContext, h storeHandler) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		store, err := sc.Expenses()
		if err != nil {
			return mcp.NewToolResultError("Expense store unavailable: " + err.Error()), nil
		}
		return h(ctx, store, request), nil
	}
}

func failure(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, expenses.ErrInvalidAmount),
		errors.Is(err, expenses.ErrMissingCategory),
		errors.Is(err, expenses.ErrMissingPhone),
		errors.Is(err, expenses.ErrUnsupportedFormat),
		errors.Is(err, expenses.ErrUnparseable):
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError("Failed to access expenses: " + err.Error())
}

func totalsResult(totals map[string]float64) *mcp.CallToolResult {
	// encoding/json sorts map keys
	b, err := json.Marshal(totals)
	if err != nil {
		return failure(err)
	}
	return mcp.NewToolResultText(string(b))
}

func parseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: use YYYY-MM-DDTHH:MM:SS or YYYY-MM-DD", raw)
}
