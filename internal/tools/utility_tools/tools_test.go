package utility_tools

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akasxh/mcp-server-daily/internal/server"
	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
	"github.com/Akasxh/mcp-server-daily/internal/tools/tooltest"
	"github.com/Akasxh/mcp-server-daily/internal/utility"
)

var fixedNow = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func setup(t *testing.T, status int, body string) *registry.Registry {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	converter := utility.NewCurrencyConverter("test-key",
		utility.WithCurrencyBaseURL(srv.URL),
		utility.WithCurrencyHTTPClient(srv.Client()),
	)
	d := utility.NewDispatcher(converter, utility.WithDispatcherClock(func() time.Time { return fixedNow }))

	sc := tooltest.NewServerContext(t, tooltest.Config(t), server.WithUtility(d))
	r := registry.New(sc)
	require.NoError(t, RegisterUtilityTools(r, sc))
	return r
}

func TestUtilityTools(t *testing.T) {
	r := setup(t, http.StatusOK, `{"data":{"EUR":{"code":"EUR","value":0.9}}}`)

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		want    string
		isError bool
	}{
		{"calculate", "calculate", map[string]any{"expression": "sqrt(16) + 2**3"}, "12", false},
		{"calculate invalid", "calculate", map[string]any{"expression": "2 +"}, "Invalid expression.", true},
		{"dispatch", "utility", map[string]any{"query": "unit 5 km mi"}, "5 km = 3.11 mi", false},
		{"dispatch unknown", "utility", map[string]any{"query": "dance"}, utility.MsgUnknownCommand, false},
		{"currency", "convert_currency", map[string]any{"amount": 10, "from_currency": "usd", "to_currency": "eur"}, "10 USD = 9.00 EUR", false},
		{"units", "convert_units", map[string]any{"value": 100, "from_unit": "c", "to_unit": "f"}, "100 c = 212.00 f", false},
		{"units unsupported pair", "convert_units", map[string]any{"value": 1, "from_unit": "m", "to_unit": "kg"}, "Unsupported unit conversion.", true},
		{"units unknown unit", "convert_units", map[string]any{"value": 1, "from_unit": "yd", "to_unit": "m"},
			"invalid arguments: from_unit must be one of m, ft, km, mi, kg, lb, c, f", true},
		{"world time", "world_time", map[string]any{"city": "Tokyo"}, "The time in Tokyo is 2025-06-15 09:00:00 (JST)", false},
		{"world time unknown", "world_time", map[string]any{"city": "Atlantis"}, "Unknown city.", true},
		{"split", "split_bill", map[string]any{"total": 100, "num_people": 4, "tip_percent": 10}, "Each person should pay 27.50", false},
		{"split without tip", "split_bill", map[string]any{"total": 90, "num_people": 3}, "Each person should pay 30.00", false},
		{"split nobody", "split_bill", map[string]any{"total": 90, "num_people": 0}, "invalid arguments: num_people must be >= 1", true},
		{"age", "calculate_age", map[string]any{"birthdate": "2000-06-16"}, "You are 24 years old.", false},
		{"age future", "calculate_age", map[string]any{"birthdate": "2030-01-01"}, "Birthdate cannot be in the future.", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tooltest.Invoke(t, r, context.Background(), tt.tool, tt.args)
			assert.Equal(t, tt.isError, result.IsError)
			assert.Equal(t, tt.want, tooltest.Text(result))
		})
	}
}

func TestConvertCurrency_Failures(t *testing.T) {
	args := map[string]any{"amount": 10, "from_currency": "USD", "to_currency": "EUR"}

	r := setup(t, http.StatusInternalServerError, "upstream down")
	result := tooltest.Invoke(t, r, context.Background(), "convert_currency", args)
	assert.True(t, result.IsError)
	assert.Equal(t, "Currency conversion failed: currency API returned 500: upstream down", tooltest.Text(result))

	r = setup(t, http.StatusOK, `{"data":{}}`)
	result = tooltest.Invoke(t, r, context.Background(), "convert_currency", args)
	assert.True(t, result.IsError)
	assert.Equal(t, "Unsupported currency code.", tooltest.Text(result))
}
