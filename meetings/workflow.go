package meetings

import (
	"context"
	"database/sql"
	"time"

	"github.com/Fuu-choco/zoom-line-bot/core/logger"
	"github.com/Fuu-choco/zoom-line-bot/gcal"
	"github.com/Fuu-choco/zoom-line-bot/zoom"

	"log/slog"
)

// User-facing texts pushed when provisioning finishes.
const (
	msgCreatedPrefix = "✅ 会議を作成しました！\n\n"
	msgCreateFailed  = "会議作成中にエラーが発生しました。もう一度お試しください。"
)

// Request is a confirmed draft handed off for provisioning.
type Request struct {
	UserID   string
	Name     string
	StartAt  time.Time
	Duration int
}

// ZoomAPI creates the Zoom meeting.
type ZoomAPI interface {
	CreateMeeting(ctx context.Context, p zoom.CreateMeetingParams) (*zoom.Meeting, error)
}

// CalendarAPI mirrors the meeting into Google Calendar.
type CalendarAPI interface {
	CreateEvent(ctx context.Context, p gcal.CreateEventParams) (*gcal.Event, error)
}

// Repository persists the provisioned record.
type Repository interface {
	Insert(ctx context.Context, rec *Record) error
}

// Messenger pushes the outcome back to the user.
type Messenger interface {
	PushText(ctx context.Context, to, text string)
}

// Provisioner runs the zoom -> calendar -> database pipeline for one request.
type Provisioner struct {
	zoom     ZoomAPI
	calendar CalendarAPI
	repo     Repository
	msgr     Messenger
}

// NewProvisioner wires the provisioning pipeline. The calendar client may
// be nil when Google credentials are not configured.
func NewProvisioner(zoomAPI ZoomAPI, calendar CalendarAPI, repo Repository, msgr Messenger) *Provisioner {
	return &Provisioner{zoom: zoomAPI, calendar: calendar, repo: repo, msgr: msgr}
}

// Provision creates the meeting, mirrors it to the calendar, stores the
// record, and pushes the outcome. The Zoom meeting is mandatory; the
// calendar event is best effort.
func (p *Provisioner) Provision(ctx context.Context, req Request) {
	start := time.Now()
	logger.Info(ctx, "wf", "provision.start",
		slog.String("user_id", req.UserID),
		slog.String("payload", logger.SanitizeLimit(req.Name, 128)),
	)

	meeting, err := p.zoom.CreateMeeting(ctx, zoom.CreateMeetingParams{
		Topic:    req.Name,
		StartAt:  req.StartAt,
		Duration: req.Duration,
	})
	if err != nil {
		logger.Error(ctx, "wf", "provision.failed",
			slog.String("status", "fail"),
			slog.String("operation", "zoom_create"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 300)),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		p.msgr.PushText(ctx, req.UserID, msgCreateFailed)
		return
	}

	var eventID sql.NullString
	if p.calendar != nil {
		event, calErr := p.calendar.CreateEvent(ctx, gcal.CreateEventParams{
			Summary:         req.Name,
			StartAt:         req.StartAt,
			Duration:        req.Duration,
			MeetingURL:      meeting.JoinURL,
			MeetingID:       meeting.MeetingID(),
			MeetingPassword: meeting.Password,
		})
		if calErr != nil {
			// The meeting already exists; a missing calendar entry is not fatal.
			logger.Warn(ctx, "wf", "provision.calendar_skipped",
				slog.String("meeting_id", meeting.MeetingID()),
				slog.String("err", logger.SanitizeLimit(calErr.Error(), 300)),
			)
		} else {
			eventID = sql.NullString{String: event.ID, Valid: true}
		}
	}

	rec := &Record{
		LineUserID:      req.UserID,
		MeetingID:       meeting.MeetingID(),
		MeetingPassword: sql.NullString{String: meeting.Password, Valid: meeting.Password != ""},
		MeetingURL:      sql.NullString{String: meeting.JoinURL, Valid: meeting.JoinURL != ""},
		MeetingName:     req.Name,
		StartTime:       req.StartAt,
		Duration:        req.Duration,
		GoogleEventID:   eventID,
	}
	if err := p.repo.Insert(ctx, rec); err != nil {
		logger.Error(ctx, "wf", "provision.failed",
			slog.String("status", "fail"),
			slog.String("operation", "persist"),
			slog.String("meeting_id", meeting.MeetingID()),
			slog.String("err", logger.SanitizeLimit(err.Error(), 300)),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		p.msgr.PushText(ctx, req.UserID, msgCreateFailed)
		return
	}

	p.msgr.PushText(ctx, req.UserID, msgCreatedPrefix+FormatMeetingInfo(Info{
		MeetingName:     req.Name,
		StartTime:       req.StartAt,
		Duration:        req.Duration,
		MeetingURL:      meeting.JoinURL,
		MeetingPassword: meeting.Password,
		MeetingID:       meeting.MeetingID(),
	}))

	logger.Info(ctx, "wf", "provision.done",
		slog.String("status", "ok"),
		slog.String("meeting_id", meeting.MeetingID()),
		slog.String("event_id", eventID.String),
		slog.Int64("record_id", rec.ID),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
}
