// Package mailbox implements the disposable-mail provider client. The
// provider exposes a small query-string API: domain listing, per-address
// inbox listing, full message reads, and attachment downloads.
package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	coreconfig "dropbot/core/config"
	"dropbot/core/logger"
	coretelegram "dropbot/core/telegram"
	"log/slog"
)

const localPartLength = 10

// MessageSummary is one inbox row as returned by the list endpoint.
type MessageSummary struct {
	ID      int64  `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
}

// Attachment describes a file attached to a message.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Message is a fully read message including its body.
type Message struct {
	ID          int64        `json:"id"`
	From        string       `json:"from"`
	Subject     string       `json:"subject"`
	Date        string       `json:"date"`
	Body        string       `json:"body"`
	TextBody    string       `json:"textBody"`
	HTMLBody    string       `json:"htmlBody"`
	Attachments []Attachment `json:"attachments"`
}

// Client talks to the disposable-mail provider.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client from configuration. An explicit timeout overrides the
// shared HTTP client default.
func New(cfg coreconfig.MailboxConfig) *Client {
	hc := coretelegram.BuildHTTPClient()
	if cfg.TimeoutSeconds > 0 {
		hc.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
	}
}

// ListDomains returns the provider's currently active domains.
func (c *Client) ListDomains(ctx context.Context) ([]string, error) {
	var domains []string
	if err := c.getJSON(ctx, url.Values{"action": {"getDomainList"}}, &domains); err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	if len(domains) == 0 {
		return nil, fmt.Errorf("list domains: provider returned no domains")
	}
	return domains, nil
}

// RandomAddress generates a fresh address on the given domain. The local
// part is a random lowercase hex token, long enough to make collisions on a
// shared provider unlikely.
func (c *Client) RandomAddress(domain string) string {
	local := strings.ReplaceAll(uuid.NewString(), "-", "")[:localPartLength]
	return local + "@" + domain
}

// SplitAddress breaks an address into the login and domain the provider API
// expects. It fails on anything that is not a plain login@domain pair.
func SplitAddress(address string) (login, domain string, err error) {
	login, domain, ok := strings.Cut(address, "@")
	if !ok || login == "" || domain == "" {
		return "", "", fmt.Errorf("malformed address %q", address)
	}
	return login, domain, nil
}

// ListMessages returns the inbox for an address, newest first as the
// provider orders them. An empty inbox is a valid empty slice.
func (c *Client) ListMessages(ctx context.Context, login, domain string) ([]MessageSummary, error) {
	q := url.Values{
		"action": {"getMessages"},
		"login":  {login},
		"domain": {domain},
	}
	var msgs []MessageSummary
	if err := c.getJSON(ctx, q, &msgs); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// ReadMessage fetches the full content of one message.
func (c *Client) ReadMessage(ctx context.Context, login, domain string, id int64) (*Message, error) {
	q := url.Values{
		"action": {"readMessage"},
		"login":  {login},
		"domain": {domain},
		"id":     {fmt.Sprintf("%d", id)},
	}
	var msg Message
	if err := c.getJSON(ctx, q, &msg); err != nil {
		return nil, fmt.Errorf("read message %d: %w", id, err)
	}
	return &msg, nil
}

// AttachmentURL builds the direct download link for an attachment. The
// provider serves attachments without authentication, so the link can be
// handed straight to the user.
func (c *Client) AttachmentURL(login, domain string, id int64, filename string) string {
	q := url.Values{
		"action": {"download"},
		"login":  {login},
		"domain": {domain},
		"id":     {fmt.Sprintf("%d", id)},
		"file":   {filename},
	}
	return c.baseURL + "/?" + q.Encode()
}

func (c *Client) getJSON(ctx context.Context, q url.Values, out any) error {
	reqURL := c.baseURL + "/?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.SVCMailbox.Error("provider request failed",
			slog.String("event", "mailbox.request"),
			slog.String("action", q.Get("action")),
			slog.String("err", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.SVCMailbox.Warn("provider non-200",
			slog.String("event", "mailbox.request"),
			slog.String("action", q.Get("action")),
			slog.Int("http_status", resp.StatusCode),
		)
		return fmt.Errorf("provider status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	logger.SVCMailbox.Debug("provider request",
		slog.String("event", "mailbox.request"),
		slog.String("action", q.Get("action")),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}
