// Package gmail sends mail through the Gmail API on behalf of the session user.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/mail"
	"strings"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/Akasxh/mcp-server-daily/internal/google"
	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
)

// Client wraps the Gmail Users service
type Client struct {
	svc     *gmail.UsersService
	backend google.Backend
}

// NewClient creates a Gmail client authorized by accessToken.
func NewClient(ctx context.Context, accessToken string, backend google.Backend) (*Client, error) {
	opts, err := backend.ClientOptions(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{svc: svc.Users, backend: backend}, nil
}

// SendEmail sends a plain text message from the authenticated user and
// returns the Gmail message ID.
func (c *Client) SendEmail(ctx context.Context, to, subject, body string) (string, error) {
	raw, err := BuildMessage(to, subject, body)
	if err != nil {
		return "", err
	}

	ctx, call := c.backend.StartCall(ctx, instrumentation.ServiceGmail, "send")
	sent, err := c.svc.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if call.End(err) != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return sent.Id, nil
}

// BuildMessage renders an RFC 822 message. Non-ASCII subjects are RFC 2047
// encoded.
func BuildMessage(to, subject, body string) ([]byte, error) {
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	if strings.ContainsAny(subject, "\r\n") {
		return nil, fmt.Errorf("subject must not contain line breaks")
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "To: %s\r\n", addr.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.Bytes(), nil
}
