package conversation

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Fuu-choco/zoom-line-bot/core/logger"
	"github.com/Fuu-choco/zoom-line-bot/meetings"
	"github.com/Fuu-choco/zoom-line-bot/timeparse"

	"log/slog"
)

// Messenger sends dialogue replies and out-of-band pushes.
type Messenger interface {
	ReplyText(ctx context.Context, replyToken, text string)
	PushText(ctx context.Context, to, text string)
}

// Scheduler hands a confirmed draft to the provisioning pool.
type Scheduler interface {
	Schedule(ctx context.Context, req meetings.Request) error
}

// Machine is the dialogue state machine. One instance serves all users;
// per-user state lives in the Store.
type Machine struct {
	store Store
	msgr  Messenger
	sched Scheduler
	loc   *time.Location
}

// NewMachine builds the dialogue machine. loc is the timezone meeting
// start times are interpreted in.
func NewMachine(store Store, msgr Messenger, sched Scheduler, loc *time.Location) *Machine {
	if loc == nil {
		loc = time.Local
	}
	return &Machine{store: store, msgr: msgr, sched: sched, loc: loc}
}

// HandleMessage advances the user's dialogue by one message. It never
// panics outward; a fault answers with a generic retry prompt and leaves
// the session as it was.
func (m *Machine) HandleMessage(ctx context.Context, userID, text, replyToken string) {
	start := time.Now()
	sess, _ := m.store.Get(userID)
	phase := sess.Phase

	defer func() {
		if rec := recover(); rec != nil {
			logger.CONV.Error("panic recovered",
				slog.String("event", "conv.panic"),
				slog.String("rid", logger.RIDFrom(ctx)),
				slog.String("user_id", userID),
				slog.String("phase", string(phase)),
				slog.Any("err", rec),
				slog.String("stack", string(debug.Stack())),
			)
			m.msgr.ReplyText(ctx, replyToken, MsgGenericError)
		}
	}()

	outcome := m.advance(ctx, userID, text, replyToken, sess)

	logger.Debug(ctx, "conv", "message.handled",
		slog.String("user_id", userID),
		slog.String("phase", string(phase)),
		slog.String("outcome", outcome),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
}

func (m *Machine) advance(ctx context.Context, userID, text, replyToken string, sess Session) string {
	// The trigger restarts the dialogue from any phase.
	if text == TriggerCreate {
		m.store.Put(userID, Session{Phase: PhaseAwaitingName})
		m.msgr.ReplyText(ctx, replyToken, MsgAskName)
		return "restarted"
	}

	switch sess.Phase {
	case PhaseAwaitingName:
		name := strings.TrimSpace(text)
		if name == "" {
			m.msgr.ReplyText(ctx, replyToken, MsgNameRequired)
			return "reprompt"
		}
		sess.Draft.Name = name
		sess.Phase = PhaseAwaitingDate
		m.store.Put(userID, sess)
		m.msgr.ReplyText(ctx, replyToken, MsgAskDate)
		return "advanced"

	case PhaseAwaitingDate:
		date, ok := timeparse.ParseDate(text)
		if !ok {
			m.msgr.ReplyText(ctx, replyToken, MsgBadDate)
			return "reprompt"
		}
		sess.Draft.Date = date
		sess.Draft.HasDate = true
		sess.Phase = PhaseAwaitingTime
		m.store.Put(userID, sess)
		m.msgr.ReplyText(ctx, replyToken, MsgAskTime)
		return "advanced"

	case PhaseAwaitingTime:
		hour, minute, ok := timeparse.ParseTime(text)
		if !ok {
			m.msgr.ReplyText(ctx, replyToken, MsgBadTime)
			return "reprompt"
		}
		sess.Draft.Hour = hour
		sess.Draft.Minute = minute
		sess.Draft.HasTime = true
		sess.Phase = PhaseAwaitingDuration
		m.store.Put(userID, sess)
		m.msgr.ReplyText(ctx, replyToken, MsgAskDuration)
		return "advanced"

	case PhaseAwaitingDuration:
		duration, ok := timeparse.ParseDuration(text)
		if !ok {
			m.msgr.ReplyText(ctx, replyToken, MsgBadDuration)
			return "reprompt"
		}
		sess.Draft.Duration = duration
		sess.Phase = PhaseConfirming
		m.store.Put(userID, sess)
		m.msgr.ReplyText(ctx, replyToken,
			ConfirmationPrompt(sess.Draft.Name, m.startAt(sess.Draft), duration))
		return "advanced"

	case PhaseConfirming:
		switch text {
		case AnswerYes:
			return m.confirm(ctx, userID, replyToken, sess)
		case AnswerNo:
			m.store.Clear(userID)
			m.msgr.ReplyText(ctx, replyToken, MsgCancelled)
			return "cancelled"
		default:
			m.msgr.ReplyText(ctx, replyToken, MsgConfirmChoice)
			return "reprompt"
		}

	default:
		m.msgr.ReplyText(ctx, replyToken, MsgIdleHint)
		return "idle"
	}
}

// confirm acknowledges immediately, clears the session, and hands the
// snapshot off to the provisioning pool.
func (m *Machine) confirm(ctx context.Context, userID, replyToken string, sess Session) string {
	m.msgr.ReplyText(ctx, replyToken, MsgProcessing)

	draft := sess.Draft
	m.store.Clear(userID)

	req := meetings.Request{
		UserID:   userID,
		Name:     draft.Name,
		StartAt:  m.startAt(draft),
		Duration: draft.Duration,
	}
	if err := m.sched.Schedule(ctx, req); err != nil {
		logger.CONV.Error("provision handoff failed",
			slog.String("event", "conv.handoff"),
			slog.String("status", "fail"),
			slog.String("user_id", userID),
			slog.String("err", err.Error()),
		)
		m.msgr.PushText(ctx, userID, MsgCreateFailed)
		return "handoff_failed"
	}
	return "confirmed"
}

func (m *Machine) startAt(d Draft) time.Time {
	return timeparse.Combine(d.Date, d.Hour, d.Minute, m.loc)
}
