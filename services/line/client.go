package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tsunagu/utils"

	"go.uber.org/zap"
)

const (
	apiBase = "https://api.line.me/v2/bot"

	// MulticastChunkSize bounds recipient batches per multicast call.
	MulticastChunkSize = 150
)

// Package-level HTTP client for messaging API calls.
var lineHTTPClient = &http.Client{Timeout: 10 * time.Second}

// Client sends messages through the messaging API.
type Client struct {
	accessToken string
	baseURL     string
}

// NewClient creates a messaging client with the given channel access token.
func NewClient(accessToken string) *Client {
	return &Client{accessToken: accessToken, baseURL: apiBase}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(accessToken, baseURL string) *Client {
	return &Client{accessToken: accessToken, baseURL: baseURL}
}

// Reply answers one inbound event using its reply token.
func (c *Client) Reply(ctx context.Context, replyToken string, messages ...any) error {
	payload := map[string]any{
		"replyToken": replyToken,
		"messages":   messages,
	}
	return c.post(ctx, "/message/reply", payload)
}

// ReplyText answers one inbound event with a single text message.
func (c *Client) ReplyText(ctx context.Context, replyToken, text string) error {
	return c.Reply(ctx, replyToken, NewTextMessage(text))
}

// Push sends messages to a single user outside a reply window.
func (c *Client) Push(ctx context.Context, to string, messages ...any) error {
	payload := map[string]any{
		"to":       to,
		"messages": messages,
	}
	return c.post(ctx, "/message/push", payload)
}

// Multicast sends messages to many users, chunked to the API batch limit.
// Failed chunks are logged and remaining chunks still go out; the last
// failure is returned.
func (c *Client) Multicast(ctx context.Context, to []string, messages ...any) error {
	logger := utils.GetLogger()

	var lastErr error
	for start := 0; start < len(to); start += MulticastChunkSize {
		end := start + MulticastChunkSize
		if end > len(to) {
			end = len(to)
		}
		payload := map[string]any{
			"to":       to[start:end],
			"messages": messages,
		}
		if err := c.post(ctx, "/message/multicast", payload); err != nil {
			logger.Error("Multicast chunk failed",
				zap.Int("start", start), zap.Int("size", end-start), zap.Error(err))
			lastErr = err
		}
	}
	return lastErr
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build messaging request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := lineHTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("messaging request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("messaging API %s returned %d: %s", endpoint, resp.StatusCode, string(detail))
	}
	return nil
}
