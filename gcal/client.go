// Package gcal is a service-account Google Calendar client covering the
// event lifecycle the bot needs.
package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Fuu-choco/zoom-line-bot/core/logger"
	"github.com/Fuu-choco/zoom-line-bot/core/netutil"

	"log/slog"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// Options configure the calendar client.
type Options struct {
	CredentialsJSON string
	CalendarID      string
	Timezone        string
	BaseURL         string
	TokenURL        string
	HTTPClient      *http.Client
}

// Client talks to the Calendar API with a cached service-account token.
type Client struct {
	http       *http.Client
	tokens     *tokenSource
	calendarID string
	timezone   string
	baseURL    string
}

// NewClient parses the service-account credentials and builds a client.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = netutil.BuildHTTPClient()
	}

	tokens, err := newTokenSource(opts.CredentialsJSON, httpClient, opts.TokenURL)
	if err != nil {
		return nil, fmt.Errorf("gcal credentials: %w", err)
	}

	calendarID := opts.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	timezone := opts.Timezone
	if timezone == "" {
		timezone = "Asia/Tokyo"
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		http:       httpClient,
		tokens:     tokens,
		calendarID: calendarID,
		timezone:   timezone,
		baseURL:    baseURL,
	}, nil
}

// EventDateTime is a calendar event boundary.
type EventDateTime struct {
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// ReminderOverride is a single non-default reminder.
type ReminderOverride struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

// Reminders controls event notifications.
type Reminders struct {
	UseDefault bool               `json:"useDefault"`
	Overrides  []ReminderOverride `json:"overrides,omitempty"`
}

type conferenceSolutionKey struct {
	Type string `json:"type"`
}

type conferenceCreateRequest struct {
	RequestID             string                `json:"requestId"`
	ConferenceSolutionKey conferenceSolutionKey `json:"conferenceSolutionKey"`
}

type conferenceData struct {
	CreateRequest *conferenceCreateRequest `json:"createRequest,omitempty"`
}

// Event is the subset of the Calendar event resource the bot consumes.
type Event struct {
	ID             string          `json:"id,omitempty"`
	Summary        string          `json:"summary,omitempty"`
	Description    string          `json:"description,omitempty"`
	Location       string          `json:"location,omitempty"`
	Start          *EventDateTime  `json:"start,omitempty"`
	End            *EventDateTime  `json:"end,omitempty"`
	Reminders      *Reminders      `json:"reminders,omitempty"`
	ConferenceData *conferenceData `json:"conferenceData,omitempty"`
	HTMLLink       string          `json:"htmlLink,omitempty"`
}

// CreateEventParams describe the calendar entry for a provisioned meeting.
type CreateEventParams struct {
	Summary         string
	StartAt         time.Time
	Duration        int
	MeetingURL      string
	MeetingID       string
	MeetingPassword string
}

// CreateEvent inserts an event with the Zoom details in the description.
// Attendees are never notified.
func (c *Client) CreateEvent(ctx context.Context, p CreateEventParams) (*Event, error) {
	endAt := p.StartAt.Add(time.Duration(p.Duration) * time.Minute)

	requestID := "zoom-" + p.MeetingID
	if p.MeetingID == "" {
		requestID = "zoom-" + uuid.NewString()
	}

	event := Event{
		Summary:     p.Summary,
		Description: buildEventDescription(p),
		Location:    p.MeetingURL,
		Start: &EventDateTime{
			DateTime: p.StartAt.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
		End: &EventDateTime{
			DateTime: endAt.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
		Reminders: &Reminders{
			UseDefault: false,
			Overrides: []ReminderOverride{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 10},
			},
		},
		ConferenceData: &conferenceData{
			CreateRequest: &conferenceCreateRequest{
				RequestID:             requestID,
				ConferenceSolutionKey: conferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}

	query := url.Values{
		"conferenceDataVersion": {"1"},
		"sendUpdates":           {"none"},
	}

	start := time.Now()
	var created Event
	err := c.do(ctx, http.MethodPost, c.eventsPath("")+"?"+query.Encode(), event, &created)
	if err != nil {
		logger.GCAL.Error("event create failed",
			slog.String("event", "event.create"),
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 300)),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		return nil, fmt.Errorf("gcal create event: %w", err)
	}

	logger.GCAL.Info("event created",
		slog.String("event", "event.create"),
		slog.String("status", "ok"),
		slog.String("event_id", created.ID),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return &created, nil
}

// GetEvent fetches an event by id.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	var event Event
	if err := c.do(ctx, http.MethodGet, c.eventsPath(eventID), nil, &event); err != nil {
		return nil, fmt.Errorf("gcal get event: %w", err)
	}
	return &event, nil
}

// UpdateEvent rewrites summary, description, times, and location of an
// existing event.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, p CreateEventParams) error {
	existing, err := c.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}

	endAt := p.StartAt.Add(time.Duration(p.Duration) * time.Minute)
	existing.Summary = p.Summary
	existing.Description = buildEventDescription(p)
	existing.Location = p.MeetingURL
	if existing.Start == nil {
		existing.Start = &EventDateTime{TimeZone: c.timezone}
	}
	if existing.End == nil {
		existing.End = &EventDateTime{TimeZone: c.timezone}
	}
	existing.Start.DateTime = p.StartAt.Format(time.RFC3339)
	existing.End.DateTime = endAt.Format(time.RFC3339)

	if err := c.do(ctx, http.MethodPut, c.eventsPath(eventID), existing, nil); err != nil {
		return fmt.Errorf("gcal update event: %w", err)
	}
	logger.GCAL.Info("event updated",
		slog.String("event", "event.update"),
		slog.String("event_id", eventID),
	)
	return nil
}

// DeleteEvent removes an event.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if err := c.do(ctx, http.MethodDelete, c.eventsPath(eventID), nil, nil); err != nil {
		return fmt.Errorf("gcal delete event: %w", err)
	}
	logger.GCAL.Info("event deleted",
		slog.String("event", "event.delete"),
		slog.String("event_id", eventID),
	)
	return nil
}

func (c *Client) eventsPath(eventID string) string {
	base := "/calendars/" + url.PathEscape(c.calendarID) + "/events"
	if eventID == "" {
		return base
	}
	return base + "/" + url.PathEscape(eventID)
}

func buildEventDescription(p CreateEventParams) string {
	return fmt.Sprintf(
		"Zoom会議\n\n会議URL: %s\n会議ID: %s\nパスワード: %s\n\nこの会議はLINE Bot経由で作成されました。",
		p.MeetingURL, p.MeetingID, p.MeetingPassword,
	)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	token, err := c.tokens.accessToken()
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
		return fmt.Sprintf("calendar api request failed (%d)", e.status)
	}
	return fmt.Sprintf("calendar api request failed: %s (%d)", e.body, e.status)
}

func (e *apiError) StatusCode() int {
	return e.status
}
