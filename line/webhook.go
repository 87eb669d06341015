package line

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/Fuu-choco/zoom-line-bot/core/logger"

	"log/slog"
)

const maxWebhookBody = 1 << 20

// EventHandler consumes a single verified webhook event.
type EventHandler func(ctx context.Context, ev Event)

// Webhook verifies and parses Messaging API webhook deliveries, then fans
// text-message events out to the handler, one goroutine per event.
type Webhook struct {
	secret string
	handle EventHandler
	wg     sync.WaitGroup
}

// NewWebhook builds the webhook endpoint handler.
func NewWebhook(channelSecret string, handle EventHandler) *Webhook {
	return &Webhook{secret: channelSecret, handle: handle}
}

// Wait blocks until all in-flight event handlers have returned.
func (h *Webhook) Wait() {
	h.wg.Wait()
}

func (h *Webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		logger.HTTP.Warn("webhook body read failed",
			slog.String("event", "webhook.reject"),
			slog.String("err", err.Error()),
		)
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid body"})
		return
	}

	// Signature is checked before the body is even parsed.
	sig := r.Header.Get(SignatureHeader)
	if !ValidateSignature(h.secret, sig, body) {
		logger.HTTP.Warn("signature mismatch",
			slog.String("event", "webhook.reject"),
			slog.String("status", "fail"),
		)
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid signature"})
		return
	}

	var req WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		logger.HTTP.Warn("webhook decode failed",
			slog.String("event", "webhook.reject"),
			slog.String("err", err.Error()),
		)
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid body"})
		return
	}

	for _, ev := range req.Events {
		if !ev.IsTextMessage() || ev.Source.UserID == "" {
			continue
		}

		ctx := logger.WithRID(logger.Background(), logger.NewRID())
		ctx = logger.WithUserID(ctx, ev.Source.UserID)
		ctx = logger.WithLogger(ctx, logger.Component("line"))

		if logger.ShouldSampleDebug() {
			logger.Debug(ctx, "line", "event.received",
				slog.String("status", "ok"),
				slog.String("rid", logger.RIDFrom(ctx)),
				slog.String("user_id", ev.Source.UserID),
				slog.String("payload", logger.SanitizeLimit(ev.Message.Text, 256)),
			)
		}

		h.wg.Add(1)
		go func(ctx context.Context, ev Event) {
			defer h.wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					logger.HTTP.Error("panic recovered",
						slog.String("event", "webhook.panic"),
						slog.String("rid", logger.RIDFrom(ctx)),
						slog.Any("err", rec),
						slog.String("stack", string(debug.Stack())),
					)
				}
			}()
			h.handle(ctx, ev)
		}(ctx, ev)
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func respondJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
