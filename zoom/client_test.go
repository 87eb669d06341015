package zoom

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		APIKey:     "test-key",
		APISecret:  "test-secret",
		Timezone:   "Asia/Tokyo",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
}

func TestCreateMeeting(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody createMeetingRequest

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id": 123456789,
			"topic": "週次定例",
			"password": "424242",
			"join_url": "https://zoom.us/j/123456789",
			"start_url": "https://zoom.us/s/123456789",
			"start_time": "2024-01-15T05:00:00Z",
			"duration": 60
		}`))
	})

	startAt := time.Date(2024, time.January, 15, 14, 0, 0, 0, time.FixedZone("JST", 9*3600))
	meeting, err := c.CreateMeeting(context.Background(), CreateMeetingParams{
		Topic:    "週次定例",
		StartAt:  startAt,
		Duration: 60,
		Password: "424242",
	})
	require.NoError(t, err)

	assert.Equal(t, "POST /users/me/meetings", gotPath)
	assert.Equal(t, "週次定例", gotBody.Topic)
	assert.Equal(t, 2, gotBody.Type)
	assert.Equal(t, "2024-01-15T14:00:00", gotBody.StartTime)
	assert.Equal(t, "Asia/Tokyo", gotBody.Timezone)
	assert.Equal(t, "424242", gotBody.Password)
	assert.True(t, gotBody.Settings.WaitingRoom)
	assert.True(t, gotBody.Settings.MuteUponEntry)
	assert.False(t, gotBody.Settings.JoinBeforeHost)
	assert.Equal(t, "both", gotBody.Settings.Audio)
	assert.Equal(t, "none", gotBody.Settings.AutoRecording)

	assert.Equal(t, "123456789", meeting.MeetingID())
	assert.Equal(t, "https://zoom.us/j/123456789", meeting.JoinURL)
	assert.Equal(t, "424242", meeting.Password)

	// Bearer token must be a valid HS256 JWT issued for the api key.
	require.True(t, strings.HasPrefix(gotAuth, "Bearer "))
	parsed, err := jwt.Parse(strings.TrimPrefix(gotAuth, "Bearer "), func(tok *jwt.Token) (any, error) {
		require.IsType(t, &jwt.SigningMethodHMAC{}, tok.Method)
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "test-key", claims["iss"])
}

func TestCreateMeetingGeneratesPassword(t *testing.T) {
	var gotBody createMeetingRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 1}`))
	})

	_, err := c.CreateMeeting(context.Background(), CreateMeetingParams{
		Topic:    "x",
		StartAt:  time.Now(),
		Duration: 30,
	})
	require.NoError(t, err)
	assert.Len(t, gotBody.Password, 6)
}

func TestCreateMeetingAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":124,"message":"Invalid access token."}`))
	})

	_, err := c.CreateMeeting(context.Background(), CreateMeetingParams{
		Topic:    "x",
		StartAt:  time.Now(),
		Duration: 30,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestTokenReuse(t *testing.T) {
	c := NewClient(Options{APIKey: "k", APISecret: "s"})

	first, err := c.accessToken()
	require.NoError(t, err)
	second, err := c.accessToken()
	require.NoError(t, err)
	assert.Equal(t, first, second, "token should be cached until near expiry")

	c.tokenExp = time.Now().Add(30 * time.Second)
	third, err := c.accessToken()
	require.NoError(t, err)
	assert.NotEmpty(t, third)
	assert.True(t, time.Until(c.tokenExp) > 50*time.Minute, "token near expiry must be reissued")
}

func TestDeleteMeeting(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteMeeting(context.Background(), "123"))
	assert.Equal(t, "DELETE /meetings/123", gotPath)
}
