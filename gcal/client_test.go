package gcal

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCredentials(t *testing.T, tokenURI string) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	creds, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"client_email": "bot@project.iam.gserviceaccount.com",
		"private_key":  string(pemKey),
		"token_uri":    tokenURI,
	})
	require.NoError(t, err)
	return string(creds)
}

func TestCreateEvent(t *testing.T) {
	var tokenCalls int
	var gotQuery map[string][]string
	var gotEvent Event

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.Form.Get("grant_type"))
		assert.NotEmpty(t, r.Form.Get("assertion"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-access","expires_in":3600,"token_type":"Bearer"}`))
	})
	mux.HandleFunc("/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-access", r.Header.Get("Authorization"))
		gotQuery = r.URL.Query()
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotEvent))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"evt123","htmlLink":"https://calendar.google.com/event?eid=evt123"}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewClient(Options{
		CredentialsJSON: testCredentials(t, srv.URL+"/token"),
		Timezone:        "Asia/Tokyo",
		BaseURL:         srv.URL,
		HTTPClient:      srv.Client(),
	})
	require.NoError(t, err)

	startAt := time.Date(2024, time.January, 15, 14, 0, 0, 0, time.FixedZone("JST", 9*3600))
	created, err := c.CreateEvent(context.Background(), CreateEventParams{
		Summary:         "週次定例",
		StartAt:         startAt,
		Duration:        60,
		MeetingURL:      "https://zoom.us/j/123456789",
		MeetingID:       "123456789",
		MeetingPassword: "424242",
	})
	require.NoError(t, err)
	assert.Equal(t, "evt123", created.ID)

	assert.Equal(t, []string{"1"}, gotQuery["conferenceDataVersion"])
	assert.Equal(t, []string{"none"}, gotQuery["sendUpdates"])

	assert.Equal(t, "週次定例", gotEvent.Summary)
	assert.Equal(t, "https://zoom.us/j/123456789", gotEvent.Location)
	assert.Contains(t, gotEvent.Description, "会議URL: https://zoom.us/j/123456789")
	assert.Contains(t, gotEvent.Description, "会議ID: 123456789")
	assert.Contains(t, gotEvent.Description, "パスワード: 424242")

	require.NotNil(t, gotEvent.Start)
	assert.Equal(t, "2024-01-15T14:00:00+09:00", gotEvent.Start.DateTime)
	assert.Equal(t, "Asia/Tokyo", gotEvent.Start.TimeZone)
	require.NotNil(t, gotEvent.End)
	assert.Equal(t, "2024-01-15T15:00:00+09:00", gotEvent.End.DateTime)

	require.NotNil(t, gotEvent.Reminders)
	assert.False(t, gotEvent.Reminders.UseDefault)
	require.Len(t, gotEvent.Reminders.Overrides, 2)
	assert.Equal(t, ReminderOverride{Method: "email", Minutes: 1440}, gotEvent.Reminders.Overrides[0])
	assert.Equal(t, ReminderOverride{Method: "popup", Minutes: 10}, gotEvent.Reminders.Overrides[1])

	require.NotNil(t, gotEvent.ConferenceData)
	require.NotNil(t, gotEvent.ConferenceData.CreateRequest)
	assert.Equal(t, "zoom-123456789", gotEvent.ConferenceData.CreateRequest.RequestID)
	assert.Equal(t, "hangoutsMeet", gotEvent.ConferenceData.CreateRequest.ConferenceSolutionKey.Type)

	assert.Equal(t, 1, tokenCalls)

	// Cached token is reused on the next call.
	_, err = c.GetEvent(context.Background(), "evt123")
	require.Error(t, err) // mux has no GET route for a single event here
	assert.Equal(t, 1, tokenCalls)
}

func TestNewClientRejectsBadCredentials(t *testing.T) {
	_, err := NewClient(Options{CredentialsJSON: `{"client_email":""}`})
	require.Error(t, err)

	_, err = NewClient(Options{CredentialsJSON: `not json`})
	require.Error(t, err)
}

func TestDeleteEvent(t *testing.T) {
	var gotPath string
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"test-access","expires_in":3600}`))
	})
	mux.HandleFunc("DELETE /calendars/primary/events/evt123", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewClient(Options{
		CredentialsJSON: testCredentials(t, srv.URL+"/token"),
		BaseURL:         srv.URL,
		HTTPClient:      srv.Client(),
	})
	require.NoError(t, err)

	require.NoError(t, c.DeleteEvent(context.Background(), "evt123"))
	assert.Equal(t, "/calendars/primary/events/evt123", gotPath)
}
