// Package zoom is a small Zoom REST API client covering the meeting
// lifecycle the bot needs.
package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Fuu-choco/zoom-line-bot/core/logger"
	"github.com/Fuu-choco/zoom-line-bot/core/netutil"
	"github.com/Fuu-choco/zoom-line-bot/timeparse"

	"log/slog"
)

const (
	defaultBaseURL = "https://api.zoom.us/v2"

	// Zoom wants a local wall-clock start time plus a separate timezone field.
	startTimeLayout = "2006-01-02T15:04:05"

	tokenLifetime = time.Hour
	tokenSlack    = 60 * time.Second
)

// Options configure the Zoom client.
type Options struct {
	APIKey     string
	APISecret  string
	Timezone   string
	BaseURL    string
	HTTPClient *http.Client
}

// Client talks to the Zoom API with a cached JWT access token.
type Client struct {
	http      *http.Client
	apiKey    string
	apiSecret string
	timezone  string
	baseURL   string

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewClient builds a Zoom API client.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = netutil.BuildHTTPClient()
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timezone := opts.Timezone
	if timezone == "" {
		timezone = "Asia/Tokyo"
	}
	return &Client{
		http:      httpClient,
		apiKey:    opts.APIKey,
		apiSecret: opts.APISecret,
		timezone:  timezone,
		baseURL:   baseURL,
	}
}

// CreateMeetingParams describe the meeting to schedule.
type CreateMeetingParams struct {
	Topic    string
	StartAt  time.Time
	Duration int
	// Password is generated when empty.
	Password string
}

// Meeting is the subset of the Zoom meeting resource the bot consumes.
type Meeting struct {
	ID        int64  `json:"id"`
	Topic     string `json:"topic"`
	Password  string `json:"password"`
	JoinURL   string `json:"join_url"`
	StartURL  string `json:"start_url"`
	StartTime string `json:"start_time"`
	Duration  int    `json:"duration"`
}

// MeetingID returns the numeric meeting id as a string for storage.
func (m *Meeting) MeetingID() string {
	return fmt.Sprintf("%d", m.ID)
}

type meetingSettings struct {
	HostVideo        bool   `json:"host_video"`
	ParticipantVideo bool   `json:"participant_video"`
	JoinBeforeHost   bool   `json:"join_before_host"`
	MuteUponEntry    bool   `json:"mute_upon_entry"`
	WaitingRoom      bool   `json:"waiting_room"`
	ApprovalType     int    `json:"approval_type"`
	Audio            string `json:"audio"`
	AutoRecording    string `json:"auto_recording"`
}

type createMeetingRequest struct {
	Topic     string          `json:"topic"`
	Type      int             `json:"type"`
	StartTime string          `json:"start_time"`
	Duration  int             `json:"duration"`
	Timezone  string          `json:"timezone"`
	Password  string          `json:"password"`
	Settings  meetingSettings `json:"settings"`
}

type updateMeetingRequest struct {
	Topic     string `json:"topic"`
	StartTime string `json:"start_time"`
	Duration  int    `json:"duration"`
}

// CreateMeeting schedules a meeting for the authenticated user.
func (c *Client) CreateMeeting(ctx context.Context, p CreateMeetingParams) (*Meeting, error) {
	password := p.Password
	if password == "" {
		password = timeparse.MeetingPassword()
	}

	req := createMeetingRequest{
		Topic:     p.Topic,
		Type:      2, // scheduled meeting
		StartTime: p.StartAt.Format(startTimeLayout),
		Duration:  p.Duration,
		Timezone:  c.timezone,
		Password:  password,
		Settings: meetingSettings{
			HostVideo:        true,
			ParticipantVideo: true,
			JoinBeforeHost:   false,
			MuteUponEntry:    true,
			WaitingRoom:      true,
			ApprovalType:     0,
			Audio:            "both",
			AutoRecording:    "none",
		},
	}

	start := time.Now()
	var meeting Meeting
	if err := c.do(ctx, http.MethodPost, "/users/me/meetings", req, &meeting); err != nil {
		logger.ZOOM.Error("meeting create failed",
			slog.String("event", "meeting.create"),
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 300)),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		return nil, fmt.Errorf("zoom create meeting: %w", err)
	}

	logger.ZOOM.Info("meeting created",
		slog.String("event", "meeting.create"),
		slog.String("status", "ok"),
		slog.String("meeting_id", meeting.MeetingID()),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return &meeting, nil
}

// GetMeeting fetches a meeting by id.
func (c *Client) GetMeeting(ctx context.Context, meetingID string) (*Meeting, error) {
	var meeting Meeting
	if err := c.do(ctx, http.MethodGet, "/meetings/"+meetingID, nil, &meeting); err != nil {
		return nil, fmt.Errorf("zoom get meeting: %w", err)
	}
	return &meeting, nil
}

// UpdateMeeting patches topic, start, and duration of an existing meeting.
func (c *Client) UpdateMeeting(ctx context.Context, meetingID string, p CreateMeetingParams) error {
	req := updateMeetingRequest{
		Topic:     p.Topic,
		StartTime: p.StartAt.Format(startTimeLayout),
		Duration:  p.Duration,
	}
	if err := c.do(ctx, http.MethodPatch, "/meetings/"+meetingID, req, nil); err != nil {
		return fmt.Errorf("zoom update meeting: %w", err)
	}
	logger.ZOOM.Info("meeting updated",
		slog.String("event", "meeting.update"),
		slog.String("meeting_id", meetingID),
	)
	return nil
}

// DeleteMeeting removes a meeting.
func (c *Client) DeleteMeeting(ctx context.Context, meetingID string) error {
	if err := c.do(ctx, http.MethodDelete, "/meetings/"+meetingID, nil, nil); err != nil {
		return fmt.Errorf("zoom delete meeting: %w", err)
	}
	logger.ZOOM.Info("meeting deleted",
		slog.String("event", "meeting.delete"),
		slog.String("meeting_id", meetingID),
	)
	return nil
}

// accessToken returns a signed JWT, reusing the cached one until it is
// close to expiry.
func (c *Client) accessToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExp) > tokenSlack {
		return c.token, nil
	}

	exp := time.Now().Add(tokenLifetime)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": c.apiKey,
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString([]byte(c.apiSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	c.token = signed
	c.tokenExp = exp
	return signed, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	token, err := c.accessToken()
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &apiError{status: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("zoom api request failed (%d)", e.status)
	}
	return fmt.Sprintf("zoom api request failed: %s (%d)", e.body, e.status)
}

func (e *apiError) StatusCode() int {
	return e.status
}
