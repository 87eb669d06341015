package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/Fuu-choco/zoom-line-bot/core/config"
	"github.com/Fuu-choco/zoom-line-bot/meetings"
)

type fakeLister struct {
	recs []meetings.Record
	err  error
	got  string
}

func (f *fakeLister) ListByUser(_ context.Context, lineUserID string) ([]meetings.Record, error) {
	f.got = lineUserID
	return f.recs, f.err
}

func testConfig() *coreconfig.Config {
	return &coreconfig.Config{
		Line: coreconfig.LineConfig{ChannelSecret: "s", ChannelToken: "t"},
		Zoom: coreconfig.ZoomConfig{APIKey: "k", APISecret: "ks"},
		Google: coreconfig.GoogleConfig{
			CredentialsJSON: `{"client_email":"x"}`,
		},
	}
}

func get(mux http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRootRoute(t *testing.T) {
	mux := NewMux(Deps{Config: testConfig()})

	rec := get(mux, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Zoom Meeting Bot API", body["message"])
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, true, body["line_secret_configured"])
	assert.Equal(t, true, body["line_token_configured"])
}

func TestHealthRoute(t *testing.T) {
	mux := NewMux(Deps{Config: testConfig()})

	rec := get(mux, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "configured", body.Services["zoom_api"])
	assert.Equal(t, "configured", body.Services["google_calendar"])
	assert.Equal(t, "configured", body.Services["line_bot"])
}

func TestHealthReportsUnconfiguredServices(t *testing.T) {
	cfg := testConfig()
	cfg.Google.CredentialsJSON = ""
	mux := NewMux(Deps{Config: cfg})

	rec := get(mux, "/health")
	var body struct {
		Services map[string]string `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_configured", body.Services["google_calendar"])
}

func TestMeetingsRoute(t *testing.T) {
	lister := &fakeLister{recs: []meetings.Record{{
		ID:          1,
		LineUserID:  "U1234567890",
		MeetingID:   "123456789",
		MeetingName: "週次定例",
		MeetingURL:  sql.NullString{String: "https://zoom.us/j/123456789", Valid: true},
		StartTime:   time.Date(2024, time.January, 15, 14, 0, 0, 0, time.UTC),
		Duration:    60,
	}}}
	mux := NewMux(Deps{Config: testConfig(), Meetings: lister})

	rec := get(mux, "/meetings/U1234567890")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "U1234567890", lister.got)

	var body struct {
		Status   string          `json:"status"`
		Meetings []meetings.View `json:"meetings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	require.Len(t, body.Meetings, 1)
	assert.Equal(t, "週次定例", body.Meetings[0].MeetingName)
	assert.Equal(t, "https://zoom.us/j/123456789", body.Meetings[0].MeetingURL)
	assert.Empty(t, body.Meetings[0].GoogleEventID)
}

func TestMeetingsRouteError(t *testing.T) {
	lister := &fakeLister{err: errors.New("db down")}
	mux := NewMux(Deps{Config: testConfig(), Meetings: lister})

	rec := get(mux, "/meetings/U1234567890")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestUnknownRoute(t *testing.T) {
	mux := NewMux(Deps{Config: testConfig()})

	rec := get(mux, "/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
}

func TestRecoverMiddleware(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler exploded")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}
