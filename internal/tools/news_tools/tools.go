package news_tools

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/news"
	"github.com/Akasxh/mcp-server-daily/internal/server"
	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
)

// Group is the registry group of the news tools.
const Group = "news"

// NewsAPI categories.
var categories = []string{"business", "entertainment", "general", "health", "science", "sports", "technology"}

// RegisterNewsTools registers the news tools.
func RegisterNewsTools(r *registry.Registry, sc *server.ServerContext) error {
	headlines := mcp.NewTool("news_headlines",
		mcp.WithDescription("Top headlines from NewsAPI, returned as the raw JSON response"),
		mcp.WithString("query", mcp.Description("Keywords to search for")),
		mcp.WithString("country", mcp.Description("Two-letter country code (default: us)")),
		mcp.WithString("category", mcp.Enum(categories...), mcp.Description("Headline category")),
		mcp.WithNumber("limit", mcp.Min(1), mcp.Max(100), mcp.DefaultNumber(5), mcp.Description("Number of articles (default: 5)")),
	)
	err := r.Add(Group, headlines, instrumentation.ServiceNews,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			doc, err := sc.NewsAPI().TopHeadlines(ctx, news.HeadlinesQuery{
				Query:    strings.TrimSpace(request.GetString("query", "")),
				Country:  strings.ToLower(request.GetString("country", "us")),
				Category: request.GetString("category", ""),
				Limit:    request.GetInt("limit", 5),
			})
			if errors.Is(err, news.ErrNewsAPINotConfigured) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err != nil {
				return mcp.NewToolResultError("Failed to fetch headlines: " + err.Error()), nil
			}
			return mcp.NewToolResultText(string(doc)), nil
		})
	if err != nil {
		return err
	}

	googleNews := mcp.NewTool("google_news",
		mcp.WithDescription("Top Google News headlines as '- title (link)' lines, optionally for a topic and region"),
		mcp.WithString("category", mcp.Description("Topic such as WORLD, BUSINESS or TECHNOLOGY")),
		mcp.WithString("region", mcp.Description("Region code such as US or IN")),
	)
	return r.Add(Group, googleNews, instrumentation.ServiceNews,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			summary := sc.RSS().Headlines(ctx,
				strings.TrimSpace(request.GetString("category", "")),
				strings.TrimSpace(request.GetString("region", "")))
			if summary == news.MsgFetchFailure {
				return mcp.NewToolResultError(summary), nil
			}
			return mcp.NewToolResultText(summary), nil
		})
}
