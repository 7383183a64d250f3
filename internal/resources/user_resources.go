package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Akasxh/mcp-server-daily/internal/mcp/oauth"
	"github.com/Akasxh/mcp-server-daily/internal/server"
)

const (
	ProfileURI             = "user://profile"
	WeeklyExpensesTemplate = "expenses://{phone}/weekly"

	expensesScheme = "expenses://"
	weeklySuffix   = "/weekly"
)

// RegisterUserResources registers resources describing the caller and their data.
func RegisterUserResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	profileResource := mcp.NewResource(
		ProfileURI,
		"Current Session",
		mcp.WithResourceDescription("Identity of the authenticated client and whether a Google account is linked"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(profileResource, handleUserProfile)

	weeklyTemplate := mcp.NewResourceTemplate(
		WeeklyExpensesTemplate,
		"Weekly Expenses",
		mcp.WithTemplateDescription("Spending per category since Monday for a phone number"),
		mcp.WithTemplateMIMEType("application/json"),
	)
	s.AddResourceTemplate(weeklyTemplate, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleWeeklyExpenses(ctx, request, sc)
	})

	return nil
}

// handleUserProfile never exposes the Google access token itself.
func handleUserProfile(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	session, ok := oauth.SessionFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("no authenticated session")
	}

	profile := map[string]any{
		"name":         session.Name,
		"email":        session.Email,
		"clientId":     session.ClientID,
		"googleLinked": session.HasGoogleToken(),
	}
	if !session.ExpiresAt.IsZero() {
		profile["expiresAt"] = session.ExpiresAt
	}

	return jsonContents(request.Params.URI, profile)
}

func handleWeeklyExpenses(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	phone, err := phoneFromURI(request.Params.URI)
	if err != nil {
		return nil, err
	}

	store, err := sc.Expenses()
	if err != nil {
		return nil, fmt.Errorf("expense store unavailable: %w", err)
	}

	totals, err := store.WeeklySummary(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly summary: %w", err)
	}

	return jsonContents(request.Params.URI, map[string]any{
		"phone":  phone,
		"totals": totals,
	})
}

// phoneFromURI extracts {phone} from expenses://{phone}/weekly.
func phoneFromURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, expensesScheme) || !strings.HasSuffix(uri, weeklySuffix) {
		return "", fmt.Errorf("unsupported resource URI: %s", uri)
	}
	phone := strings.TrimSuffix(strings.TrimPrefix(uri, expensesScheme), weeklySuffix)
	if phone == "" || strings.Contains(phone, "/") {
		return "", fmt.Errorf("invalid phone in resource URI: %s", uri)
	}
	return phone, nil
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
