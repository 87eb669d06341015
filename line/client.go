package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Fuu-choco/zoom-line-bot/core/logger"
	"github.com/Fuu-choco/zoom-line-bot/core/netutil"

	"log/slog"
)

const defaultBaseURL = "https://api.line.me"

// ClientOptions configure the Messaging API client.
type ClientOptions struct {
	ChannelToken string
	BaseURL      string
	HTTPClient   *http.Client
	Queue        QueueOptions
}

// Client sends reply and push messages through the Messaging API.
// Sends are asynchronous and best effort: failures are logged, never
// surfaced to the conversation flow.
type Client struct {
	http    *http.Client
	token   string
	baseURL string
	queue   *sendQueue
}

// NewClient builds a Messaging API client with its own sender queue.
func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = netutil.BuildHTTPClient()
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    httpClient,
		token:   opts.ChannelToken,
		baseURL: baseURL,
		queue:   newSendQueue(opts.Queue),
	}
}

// ReplyText answers a webhook event using its reply token.
func (c *Client) ReplyText(ctx context.Context, replyToken, text string) {
	payload := replyRequest{
		ReplyToken: replyToken,
		Messages:   []TextMessage{NewTextMessage(text)},
	}
	c.send(ctx, "reply", EndpointReply, payload)
}

// PushText sends a message to a user outside the reply window.
func (c *Client) PushText(ctx context.Context, to, text string) {
	payload := pushRequest{
		To:       to,
		Messages: []TextMessage{NewTextMessage(text)},
	}
	c.send(ctx, "push", EndpointPush, payload)
}

// ErrorCount returns the number of failed outbound calls.
func (c *Client) ErrorCount() uint64 {
	return c.queue.errorCount()
}

// Close drains the sender queue and stops its workers.
func (c *Client) Close() {
	c.queue.close()
}

func (c *Client) send(ctx context.Context, action, endpoint string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.LINE.Error("payload marshal failed",
			slog.String("event", "send.fail"),
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return
	}

	err = c.queue.enqueue(ctx, action, endpoint, func() error {
		return c.post(endpoint, body)
	})
	if err != nil {
		logger.LINE.Warn("send not queued",
			slog.String("event", "send.drop"),
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
	}
}

func (c *Client) post(endpoint string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &apiError{status: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("line api request failed (%d)", e.status)
	}
	return fmt.Sprintf("line api request failed: %s (%d)", e.body, e.status)
}

func (e *apiError) StatusCode() int {
	return e.status
}
