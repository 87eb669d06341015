package line

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedCall struct {
	path string
	auth string
	body []byte
}

func newCaptureServer(status int) (*httptest.Server, func() []capturedCall) {
	var mu sync.Mutex
	var calls []capturedCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, capturedCall{
			path: r.URL.Path,
			auth: r.Header.Get("Authorization"),
			body: body,
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	return srv, func() []capturedCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedCall(nil), calls...)
	}
}

func TestClientReplyText(t *testing.T) {
	srv, calls := newCaptureServer(http.StatusOK)
	defer srv.Close()

	c := NewClient(ClientOptions{
		ChannelToken: "test-token",
		BaseURL:      srv.URL,
		HTTPClient:   srv.Client(),
		Queue:        QueueOptions{Workers: 1},
	})
	c.ReplyText(context.Background(), "rt-1", "こんにちは")
	c.Close()

	got := calls()
	require.Len(t, got, 1)
	assert.Equal(t, EndpointReply, got[0].path)
	assert.Equal(t, "Bearer test-token", got[0].auth)

	var req replyRequest
	require.NoError(t, json.Unmarshal(got[0].body, &req))
	assert.Equal(t, "rt-1", req.ReplyToken)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "text", req.Messages[0].Type)
	assert.Equal(t, "こんにちは", req.Messages[0].Text)
	assert.Zero(t, c.ErrorCount())
}

func TestClientPushText(t *testing.T) {
	srv, calls := newCaptureServer(http.StatusOK)
	defer srv.Close()

	c := NewClient(ClientOptions{
		ChannelToken: "test-token",
		BaseURL:      srv.URL,
		HTTPClient:   srv.Client(),
		Queue:        QueueOptions{Workers: 1},
	})
	c.PushText(context.Background(), "U1234567890", "お知らせ")
	c.Close()

	got := calls()
	require.Len(t, got, 1)
	assert.Equal(t, EndpointPush, got[0].path)

	var req pushRequest
	require.NoError(t, json.Unmarshal(got[0].body, &req))
	assert.Equal(t, "U1234567890", req.To)
}

func TestClientSwallowsAPIFailures(t *testing.T) {
	srv, calls := newCaptureServer(http.StatusInternalServerError)
	defer srv.Close()

	c := NewClient(ClientOptions{
		ChannelToken: "test-token",
		BaseURL:      srv.URL,
		HTTPClient:   srv.Client(),
		Queue:        QueueOptions{Workers: 1},
	})
	c.ReplyText(context.Background(), "rt-1", "x")
	c.Close()

	require.Len(t, calls(), 1)
	assert.Equal(t, uint64(1), c.ErrorCount())
}
