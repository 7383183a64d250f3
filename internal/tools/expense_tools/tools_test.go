package expense_tools

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akasxh/mcp-server-daily/internal/expenses"
	"github.com/Akasxh/mcp-server-daily/internal/server"
	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
	"github.com/Akasxh/mcp-server-daily/internal/tools/tooltest"
)

const phone = "+919876543210"

// Wednesday
var testNow = time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)

func setup(t *testing.T) *registry.Registry {
	t.Helper()
	store, err := expenses.Open(filepath.Join(t.TempDir(), "expenses.db"),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		expenses.WithLocation(time.UTC),
		expenses.WithClock(func() time.Time { return testNow }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sc := tooltest.NewServerContext(t, tooltest.Config(t), server.WithExpenseStore(store))
	r := registry.New(sc)
	require.NoError(t, RegisterExpenseTools(r, sc))
	return r
}

func call(t *testing.T, r *registry.Registry, name string, args map[string]any) (string, bool) {
	t.Helper()
	result := tooltest.Invoke(t, r, context.Background(), name, args)
	return tooltest.Text(result), result.IsError
}

func TestExpenseTools(t *testing.T) {
	r := setup(t)

	text, isErr := call(t, r, "add_expense", map[string]any{"phone": phone, "amount": 120.0, "category": "Lunch"})
	require.False(t, isErr, text)
	assert.Equal(t, MsgRecorded, text)

	text, isErr = call(t, r, "log_expense_message", map[string]any{"phone": phone, "message": "Spent ₹250 on lunch yesterday"})
	require.False(t, isErr, text)
	assert.Equal(t, "Expense recorded: 250.00 on lunch (2025-06-17)", text)

	_, isErr = call(t, r, "add_expense", map[string]any{"phone": phone, "amount": 40.0, "category": "travel", "timestamp": "2025-06-02"})
	require.False(t, isErr)

	// last week, must not show up in the weekly summary
	_, isErr = call(t, r, "add_expense", map[string]any{"phone": phone, "amount": 99.0, "category": "lunch", "timestamp": "2025-06-13T12:00:00"})
	require.False(t, isErr)

	// another user
	_, isErr = call(t, r, "add_expense", map[string]any{"phone": "+15550000000", "amount": 5.0, "category": "lunch"})
	require.False(t, isErr)

	text, isErr = call(t, r, "weekly_summary", map[string]any{"phone": phone})
	require.False(t, isErr)
	assert.JSONEq(t, `{"lunch":370}`, text)

	text, isErr = call(t, r, "monthly_breakdown", map[string]any{"phone": phone, "category": "LUNCH"})
	require.False(t, isErr)
	assert.JSONEq(t, `{"2025-06-13":99,"2025-06-17":250,"2025-06-18":120}`, text)

	text, isErr = call(t, r, "export_expenses", map[string]any{"phone": phone, "format": "csv"})
	require.False(t, isErr)
	assert.Equal(t, "amount,category,timestamp\n"+
		"40,travel,2025-06-02T00:00:00\n"+
		"99,lunch,2025-06-13T12:00:00\n"+
		"250,lunch,2025-06-17T15:00:00\n"+
		"120,lunch,2025-06-18T15:00:00\n", text)

	text, isErr = call(t, r, "weekly_summary", map[string]any{"phone": "+10000000000"})
	require.False(t, isErr)
	assert.Equal(t, "{}", text)
}

func TestExpenseTools_Errors(t *testing.T) {
	r := setup(t)

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"zero amount", "add_expense", map[string]any{"phone": phone, "amount": 0.0, "category": "lunch"}, "amount must be greater than zero"},
		{"bad timestamp", "add_expense", map[string]any{"phone": phone, "amount": 1.0, "category": "lunch", "timestamp": "tomorrow"},
			`invalid timestamp "tomorrow": use YYYY-MM-DDTHH:MM:SS or YYYY-MM-DD`},
		{"unparseable message", "log_expense_message", map[string]any{"phone": phone, "message": "hello there"}, "Could not parse expense message"},
		{"bad format", "export_expenses", map[string]any{"phone": phone, "format": "xml"}, "invalid arguments: format must be one of csv, json"},
		{"missing phone", "weekly_summary", map[string]any{}, "invalid arguments: phone is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := call(t, r, tt.tool, tt.args)
			assert.True(t, isErr)
			assert.Equal(t, tt.want, text)
		})
	}
}
