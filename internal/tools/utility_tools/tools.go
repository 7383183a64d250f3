package utility_tools

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/server"
	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
	"github.com/Akasxh/mcp-server-daily/internal/utility"
)

// Group is the registry group of the utility tools.
const Group = "utility"

// RegisterUtilityTools registers the calculator and conversion tools.
func RegisterUtilityTools(r *registry.Registry, sc *server.ServerContext) error {
	d := sc.Utility()

	tools := []struct {
		tool    mcp.Tool
		service string
		handler mcpserver.ToolHandlerFunc
	}{
		{
			tool: mcp.NewTool("calculate",
				mcp.WithDescription("Evaluate a math expression. Supports + - * / % **, parentheses, "+
					"pi, e, tau and functions such as sqrt, sin, log, factorial"),
				mcp.WithString("expression", mcp.Required(), mcp.Description("Expression to evaluate, e.g. 'sqrt(16) + 2**3'")),
			),
			service: instrumentation.ServiceLocal,
			handler: func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				result, err := utility.Evaluate(request.GetString("expression", ""))
				if err != nil {
					return inputFailure(err), nil
				}
				return mcp.NewToolResultText(utility.FormatNumber(result)), nil
			},
		},
		{
			tool: mcp.NewTool("utility",
				mcp.WithDescription("Run a one-line utility command: currency <amount> <from> <to>, "+
					"unit <value> <from> <to>, time <city>, split <total> <people> <tip%>, age <YYYY-MM-DD>, calc <expression>"),
				mcp.WithString("query", mcp.Required(), mcp.Description("The command, e.g. 'unit 5 km mi'")),
			),
			service: instrumentation.ServiceLocal,
			handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultText(d.Dispatch(ctx, request.GetString("query", ""))), nil
			},
		},
		{
			tool: mcp.NewTool("convert_currency",
				mcp.WithDescription("Convert an amount between currencies using live exchange rates"),
				mcp.WithNumber("amount", mcp.Required(), mcp.Description("Amount to convert")),
				mcp.WithString("from_currency", mcp.Required(), mcp.Description("ISO code to convert from, e.g. USD")),
				mcp.WithString("to_currency", mcp.Required(), mcp.Description("ISO code to convert to, e.g. EUR")),
			),
			service: instrumentation.ServiceCurrency,
			handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				amount := request.GetFloat("amount", 0)
				from := strings.ToUpper(request.GetString("from_currency", ""))
				to := strings.ToUpper(request.GetString("to_currency", ""))
				converted, err := d.Currency().Convert(ctx, amount, from, to)
				if err != nil {
					var inputErr *utility.InputError
					if errors.As(err, &inputErr) {
						return mcp.NewToolResultError(inputErr.Msg), nil
					}
					return mcp.NewToolResultError("Currency conversion failed: " + err.Error()), nil
				}
				return mcp.NewToolResultText(fmt.Sprintf("%s %s = %.2f %s", utility.FormatNumber(amount), from, converted, to)), nil
			},
		},
		{
			tool: mcp.NewTool("convert_units",
				mcp.WithDescription("Convert between m/ft, km/mi, kg/lb and c/f"),
				mcp.WithNumber("value", mcp.Required(), mcp.Description("Value to convert")),
				mcp.WithString("from_unit", mcp.Required(), mcp.Enum("m", "ft", "km", "mi", "kg", "lb", "c", "f")),
				mcp.WithString("to_unit", mcp.Required(), mcp.Enum("m", "ft", "km", "mi", "kg", "lb", "c", "f")),
			),
			service: instrumentation.ServiceLocal,
			handler: func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				value := request.GetFloat("value", 0)
				from, to := request.GetString("from_unit", ""), request.GetString("to_unit", "")
				converted, err := utility.ConvertUnits(value, from, to)
				if err != nil {
					return inputFailure(err), nil
				}
				return mcp.NewToolResultText(fmt.Sprintf("%s %s = %.2f %s", utility.FormatNumber(value), from, converted, to)), nil
			},
		},
		{
			tool: mcp.NewTool("world_time",
				mcp.WithDescription("Current time in a major city: "+strings.Join(cityNames(), ", ")),
				mcp.WithString("city", mcp.Required(), mcp.Description("City name")),
			),
			service: instrumentation.ServiceLocal,
			handler: func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				city := request.GetString("city", "")
				current, err := utility.TimeIn(city, d.Now())
				if err != nil {
					return inputFailure(err), nil
				}
				return mcp.NewToolResultText(fmt.Sprintf("The time in %s is %s", strings.TrimSpace(city), current)), nil
			},
		},
		{
			tool: mcp.NewTool("split_bill",
				mcp.WithDescription("Split a bill including tip between people"),
				mcp.WithNumber("total", mcp.Required(), mcp.Min(0), mcp.Description("Bill total before tip")),
				mcp.WithNumber("num_people", mcp.Required(), mcp.Min(1), mcp.Description("Number of people")),
				mcp.WithNumber("tip_percent", mcp.Min(0), mcp.DefaultNumber(0), mcp.Description("Tip in percent (default: 0)")),
			),
			service: instrumentation.ServiceLocal,
			handler: func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				each, err := utility.SplitBill(
					request.GetFloat("total", 0),
					request.GetInt("num_people", 0),
					request.GetFloat("tip_percent", 0),
				)
				if err != nil {
					return inputFailure(err), nil
				}
				return mcp.NewToolResultText(fmt.Sprintf("Each person should pay %.2f", each)), nil
			},
		},
		{
			tool: mcp.NewTool("calculate_age",
				mcp.WithDescription("Age in whole years for a birthdate"),
				mcp.WithString("birthdate", mcp.Required(), mcp.Description("Birthdate in YYYY-MM-DD format")),
			),
			service: instrumentation.ServiceLocal,
			handler: func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				years, err := utility.CalculateAge(request.GetString("birthdate", ""), d.Now())
				if err != nil {
					return inputFailure(err), nil
				}
				return mcp.NewToolResultText(fmt.Sprintf("You are %d years old.", years)), nil
			},
		},
	}

	for _, t := range tools {
		if err := r.Add(Group, t.tool, t.service, t.handler); err != nil {
			return err
		}
	}
	return nil
}

func inputFailure(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

func cityNames() []string {
	names := make([]string, 0, len(utility.CityTimeZones))
	for name := range utility.CityTimeZones {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
