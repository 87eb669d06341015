package server

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Fuu-choco/zoom-line-bot/core/buildinfo"
	coreconfig "github.com/Fuu-choco/zoom-line-bot/core/config"
	"github.com/Fuu-choco/zoom-line-bot/meetings"
)

// MeetingLister reads stored meetings for the listing endpoint.
type MeetingLister interface {
	ListByUser(ctx context.Context, lineUserID string) ([]meetings.Record, error)
}

// Deps are the collaborators the HTTP routes need.
type Deps struct {
	Config   *coreconfig.Config
	DB       *sqlx.DB
	Webhook  http.Handler
	Meetings MeetingLister
}

// NewMux builds the route table.
func NewMux(deps Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":                "Zoom Meeting Bot API",
			"status":                 "running",
			"version":                buildinfo.Version,
			"line_secret_configured": deps.Config.Line.ChannelSecret != "",
			"line_token_configured":  deps.Config.Line.ChannelToken != "",
		})
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		handleHealth(w, r, deps)
	})

	if deps.Webhook != nil {
		mux.Handle("POST /webhook", deps.Webhook)
	}

	mux.HandleFunc("GET /meetings/{userID}", func(w http.ResponseWriter, r *http.Request) {
		handleListMeetings(w, r, deps.Meetings)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not Found"})
	})

	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request, deps Deps) {
	ts := time.Now().Format(time.RFC3339)

	if deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := deps.DB.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"status":    "unhealthy",
				"timestamp": ts,
				"error":     err.Error(),
			})
			return
		}
	}

	cfg := deps.Config
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": ts,
		"database":  "connected",
		"services": map[string]string{
			"zoom_api":        configured(cfg.Zoom.APIKey != "" && cfg.Zoom.APISecret != ""),
			"google_calendar": configured(cfg.Google.CredentialsJSON != ""),
			"line_bot":        configured(cfg.Line.ChannelToken != "" && cfg.Line.ChannelSecret != ""),
		},
	})
}

func handleListMeetings(w http.ResponseWriter, r *http.Request, lister MeetingLister) {
	if lister == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "error", "message": "meetings storage unavailable",
		})
		return
	}

	userID := r.PathValue("userID")
	recs, err := lister.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status": "error", "message": err.Error(),
		})
		return
	}

	views := make([]meetings.View, 0, len(recs))
	for _, rec := range recs {
		views = append(views, rec.AsView())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"meetings": views,
	})
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not_configured"
}
