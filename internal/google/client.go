package google

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
)

// NoTokenMessage is returned by every Google-backed tool when the session
// has no access token.
const NoTokenMessage = "No Google access token found. Please authenticate with Google first."

// ErrNoAccessToken is returned by adapter constructors for an empty token.
var ErrNoAccessToken = errors.New(NoTokenMessage)

// Backend says where Google API calls go. The zero value talks to Google.
type Backend struct {
	// Endpoint overrides the API base URL, e.g. an httptest server.
	Endpoint string

	// HTTPClient is the base client the bearer token is layered on.
	HTTPClient *http.Client

	// Metrics is optional.
	Metrics *instrumentation.Metrics
}

// HTTPClient returns a client that sends accessToken as a bearer token.
func HTTPClient(ctx context.Context, accessToken string, base *http.Client) *http.Client {
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
}

// ClientOptions builds the option set for a google.golang.org/api service.
func (b Backend) ClientOptions(ctx context.Context, accessToken string) ([]option.ClientOption, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrNoAccessToken
	}

	opts := []option.ClientOption{
		option.WithHTTPClient(HTTPClient(ctx, accessToken, b.HTTPClient)),
	}
	if b.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(b.Endpoint))
	}
	return opts, nil
}

// StartCall opens a traced, measured call to service.operation. Finish it
// with End.
func (b Backend) StartCall(ctx context.Context, service, operation string) (context.Context, *instrumentation.UpstreamCall) {
	return instrumentation.StartUpstreamCall(ctx, b.Metrics, service, operation)
}

// ProviderError returns the text to surface for a failed Google call: the
// raw response body when there is one, the API message otherwise.
func ProviderError(err error) string {
	if err == nil {
		return ""
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if body := strings.TrimSpace(gerr.Body); body != "" {
			return body
		}
		if gerr.Message != "" {
			return gerr.Message
		}
	}
	return err.Error()
}
