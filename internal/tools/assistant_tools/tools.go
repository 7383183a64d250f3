package assistant_tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Akasxh/mcp-server-daily/internal/imaging"
	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/jobs"
	"github.com/Akasxh/mcp-server-daily/internal/server"
	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
)

// Group is the registry group of the assistant tools.
const Group = "assistant"

// RegisterAssistantTools registers translate, make_img_black_and_white,
// answer_legal_question and job_finder.
func RegisterAssistantTools(r *registry.Registry, sc *server.ServerContext) error {
	tools := []struct {
		tool    mcp.Tool
		service string
		handler mcpserver.ToolHandlerFunc
	}{
		{
			tool: mcp.NewTool("translate",
				mcp.WithDescription("Translate text into another language"),
				mcp.WithString("text", mcp.Required(), mcp.Description("Text to translate")),
				mcp.WithString("target_lang", mcp.Required(), mcp.Description("Target language code, e.g. es or hi")),
				mcp.WithString("source_lang", mcp.Description("Source language code (default: auto)")),
			),
			service: instrumentation.ServiceTranslate,
			handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				translated, err := sc.Translator().Translate(ctx,
					request.GetString("text", ""),
					request.GetString("target_lang", ""),
					request.GetString("source_lang", "auto"))
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return mcp.NewToolResultText(translated), nil
			},
		},
		{
			tool: mcp.NewTool("make_img_black_and_white",
				mcp.WithDescription("Convert an image to black and white"),
				mcp.WithString("puch_image_data", mcp.Required(), mcp.Description("Base64-encoded image data")),
			),
			service: instrumentation.ServiceLocal,
			handler: func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				gray, err := imaging.GrayscaleBase64(request.GetString("puch_image_data", ""))
				if err != nil {
					return mcp.NewToolResultError("Failed to convert image: " + err.Error()), nil
				}
				return mcp.NewToolResultImage("Converted image to black and white", gray, "image/png"), nil
			},
		},
		{
			tool: mcp.NewTool("answer_legal_question",
				mcp.WithDescription("Answer a general legal question from a built-in knowledge base"),
				mcp.WithString("question", mcp.Required(), mcp.Description("The question")),
			),
			service: instrumentation.ServiceLocal,
			handler: func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultText(sc.Legal().Answer(request.GetString("question", ""))), nil
			},
		},
		{
			tool: mcp.NewTool("job_finder",
				mcp.WithDescription("Analyze a job description, fetch a job posting URL, or search for jobs "+
					"when user_goal asks to find or look for openings"),
				mcp.WithString("user_goal", mcp.Required(), mcp.Description("What the user wants, e.g. 'find Go jobs in Berlin'")),
				mcp.WithString("job_description", mcp.Description("Full job description text")),
				mcp.WithString("job_url", mcp.Description("URL of a job posting")),
				mcp.WithBoolean("raw", mcp.Description("Return the raw page instead of simplified text (default: false)")),
			),
			service: instrumentation.ServiceJobs,
			handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				out, err := sc.Jobs().Find(ctx, jobs.Request{
					Goal:        request.GetString("user_goal", ""),
					Description: request.GetString("job_description", ""),
					URL:         strings.TrimSpace(request.GetString("job_url", "")),
					Raw:         request.GetBool("raw", false),
				})
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return mcp.NewToolResultText(out), nil
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
