// Package bridge is the HTTP client for the local Outlook drafting bridge.
// The bridge exposes two operations: create a draft (or reply, when a thread
// reference is supplied) and find the most recent sent message matching a
// recipient and subject.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoThread indicates the lookup completed but no prior message matched.
var ErrNoThread = errors.New("bridge: no matching sent message")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a bridge client. The timeout bounds every call; the
// bridge drives a local Outlook instance and can hang when Outlook does.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Attachment is one file on an outgoing draft, content base64-encoded.
type Attachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// DraftRequest is the create-draft-or-reply payload. An empty
// ThreadReference means a fresh message rather than a reply.
type DraftRequest struct {
	To              string       `json:"to"`
	Subject         string       `json:"subject"`
	Body            string       `json:"body"`
	Attachments     []Attachment `json:"attachments"`
	ThreadReference string       `json:"thread_reference,omitempty"`
}

type findLastSentRequest struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	DaysBack  int    `json:"days_back"`
}

type findLastSentResponse struct {
	ThreadReference string `json:"thread_reference"`
}

// CreateDraft asks the bridge to draft the message. A non-2xx status is a
// rejection and fails the send.
func (c *Client) CreateDraft(ctx context.Context, req DraftRequest) error {
	resp, err := c.post(ctx, "/drafts", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("bridge: create draft rejected: %s", respError(resp))
	}
	return nil
}

// FindLastSent looks up the most recent sent message to recipient with the
// given (already rendered) subject within daysBack days. Returns ErrNoThread
// when nothing matched.
func (c *Client) FindLastSent(ctx context.Context, recipient, subject string, daysBack int) (string, error) {
	resp, err := c.post(ctx, "/sent/last", findLastSentRequest{
		Recipient: recipient,
		Subject:   subject,
		DaysBack:  daysBack,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNoThread
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("bridge: find last sent failed: %s", respError(resp))
	}

	var out findLastSentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("bridge: bad find-last-sent response: %w", err)
	}
	if out.ThreadReference == "" {
		return "", ErrNoThread
	}
	return out.ThreadReference, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func respError(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(b))
	if msg == "" {
		return resp.Status
	}
	return resp.Status + ": " + msg
}
