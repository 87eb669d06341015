package meetings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Fuu-choco/zoom-line-bot/core/logger"

	"log/slog"
)

// ErrNotFound is returned when no record matches the lookup.
var ErrNotFound = errors.New("meetings: record not found")

// Repo persists meeting records in Postgres.
type Repo struct {
	db *sqlx.DB
}

// NewRepo wraps the shared database handle.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// Insert stores a new record and fills in its generated id.
func (r *Repo) Insert(ctx context.Context, rec *Record) error {
	const q = `
		INSERT INTO meetings (
			line_user_id, meeting_id, meeting_password, meeting_url,
			meeting_name, start_time, duration, google_event_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	start := time.Now()
	err := r.db.QueryRowxContext(ctx, q,
		rec.LineUserID, rec.MeetingID, rec.MeetingPassword, rec.MeetingURL,
		rec.MeetingName, rec.StartTime, rec.Duration, rec.GoogleEventID,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		logger.DB.Error("meeting insert failed",
			slog.String("event", "db.query"),
			slog.String("operation", "insert_meeting"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("insert meeting: %w", err)
	}

	logger.DB.Debug("meeting inserted",
		slog.String("event", "db.query"),
		slog.String("operation", "insert_meeting"),
		slog.Int64("record_id", rec.ID),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// ListByUser returns the user's meetings, newest start time first.
func (r *Repo) ListByUser(ctx context.Context, lineUserID string) ([]Record, error) {
	const q = `
		SELECT id, line_user_id, meeting_id, meeting_password, meeting_url,
		       meeting_name, start_time, duration, created_at, google_event_id
		FROM meetings
		WHERE line_user_id = $1
		ORDER BY start_time DESC`

	var recs []Record
	if err := r.db.SelectContext(ctx, &recs, q, lineUserID); err != nil {
		logger.DB.Error("meeting list failed",
			slog.String("event", "db.query"),
			slog.String("operation", "list_meetings"),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return recs, nil
}

// GetByMeetingID returns the record for a Zoom meeting id.
func (r *Repo) GetByMeetingID(ctx context.Context, meetingID string) (*Record, error) {
	const q = `
		SELECT id, line_user_id, meeting_id, meeting_password, meeting_url,
		       meeting_name, start_time, duration, created_at, google_event_id
		FROM meetings
		WHERE meeting_id = $1`

	var rec Record
	if err := r.db.GetContext(ctx, &rec, q, meetingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	return &rec, nil
}
