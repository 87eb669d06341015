// Package meetings owns the meeting domain: the persisted record, the
// repository, and the provisioning workflow that turns a confirmed draft
// into a Zoom meeting, a calendar event, and a database row.
package meetings

import (
	"database/sql"
	"time"
)

// Record is a provisioned meeting as stored in the meetings table.
type Record struct {
	ID              int64          `db:"id"`
	LineUserID      string         `db:"line_user_id"`
	MeetingID       string         `db:"meeting_id"`
	MeetingPassword sql.NullString `db:"meeting_password"`
	MeetingURL      sql.NullString `db:"meeting_url"`
	MeetingName     string         `db:"meeting_name"`
	StartTime       time.Time      `db:"start_time"`
	Duration        int            `db:"duration"`
	CreatedAt       time.Time      `db:"created_at"`
	GoogleEventID   sql.NullString `db:"google_event_id"`
}

// View is the JSON shape exposed by the meetings listing endpoint.
type View struct {
	ID              int64     `json:"id"`
	LineUserID      string    `json:"line_user_id"`
	MeetingID       string    `json:"meeting_id"`
	MeetingPassword string    `json:"meeting_password,omitempty"`
	MeetingURL      string    `json:"meeting_url,omitempty"`
	MeetingName     string    `json:"meeting_name"`
	StartTime       time.Time `json:"start_time"`
	Duration        int       `json:"duration"`
	CreatedAt       time.Time `json:"created_at"`
	GoogleEventID   string    `json:"google_event_id,omitempty"`
}

// AsView converts a stored record to its API representation.
func (r Record) AsView() View {
	return View{
		ID:              r.ID,
		LineUserID:      r.LineUserID,
		MeetingID:       r.MeetingID,
		MeetingPassword: r.MeetingPassword.String,
		MeetingURL:      r.MeetingURL.String,
		MeetingName:     r.MeetingName,
		StartTime:       r.StartTime,
		Duration:        r.Duration,
		CreatedAt:       r.CreatedAt,
		GoogleEventID:   r.GoogleEventID.String,
	}
}
