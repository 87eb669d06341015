package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fuu-choco/zoom-line-bot/meetings"
)

type fakeMessenger struct {
	replies []string
	pushes  []string
}

func (f *fakeMessenger) ReplyText(_ context.Context, _, text string) {
	f.replies = append(f.replies, text)
}

func (f *fakeMessenger) PushText(_ context.Context, _, text string) {
	f.pushes = append(f.pushes, text)
}

func (f *fakeMessenger) lastReply() string {
	if len(f.replies) == 0 {
		return ""
	}
	return f.replies[len(f.replies)-1]
}

type fakeScheduler struct {
	err      error
	panicMsg string
	requests []meetings.Request
}

func (f *fakeScheduler) Schedule(_ context.Context, req meetings.Request) error {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, req)
	return nil
}

func newTestMachine() (*Machine, *MemoryStore, *fakeMessenger, *fakeScheduler) {
	store := NewMemoryStore()
	msgr := &fakeMessenger{}
	sched := &fakeScheduler{}
	loc := time.FixedZone("JST", 9*3600)
	return NewMachine(store, msgr, sched, loc), store, msgr, sched
}

const testUser = "U1234567890"

func say(m *Machine, text string) {
	m.HandleMessage(context.Background(), testUser, text, "rt-1")
}

func TestFullDialogue(t *testing.T) {
	m, store, msgr, sched := newTestMachine()

	say(m, "会議作成")
	assert.Equal(t, MsgAskName, msgr.lastReply())

	say(m, "週次定例")
	assert.Equal(t, MsgAskDate, msgr.lastReply())

	say(m, "2024/01/15")
	assert.Equal(t, MsgAskTime, msgr.lastReply())

	say(m, "14:00")
	assert.Equal(t, MsgAskDuration, msgr.lastReply())

	say(m, "60分")
	confirm := msgr.lastReply()
	assert.Contains(t, confirm, "以下の内容で会議を作成しますか？")
	assert.Contains(t, confirm, "📅 会議名: 週次定例")
	assert.Contains(t, confirm, "🕐 日時: 2024年01月15日 14:00")
	assert.Contains(t, confirm, "⏱️ 時間: 1時間")
	assert.Contains(t, confirm, MsgConfirmChoice)

	say(m, "はい")
	assert.Equal(t, MsgProcessing, msgr.lastReply())

	require.Len(t, sched.requests, 1)
	req := sched.requests[0]
	assert.Equal(t, testUser, req.UserID)
	assert.Equal(t, "週次定例", req.Name)
	assert.Equal(t, "2024-01-15T14:00:00+09:00", req.StartAt.Format(time.RFC3339))
	assert.Equal(t, 60, req.Duration)

	_, ok := store.Get(testUser)
	assert.False(t, ok, "session must be cleared at hand-off")
}

func TestCancellation(t *testing.T) {
	m, store, msgr, sched := newTestMachine()

	say(m, "会議作成")
	say(m, "週次定例")
	say(m, "2024/01/15")
	say(m, "14:00")
	say(m, "60")
	say(m, "いいえ")

	assert.Equal(t, MsgCancelled, msgr.lastReply())
	assert.Empty(t, sched.requests)
	_, ok := store.Get(testUser)
	assert.False(t, ok)
}

func TestInvalidInputsReprompt(t *testing.T) {
	m, store, msgr, _ := newTestMachine()

	say(m, "会議作成")

	say(m, "   ")
	assert.Equal(t, MsgNameRequired, msgr.lastReply())
	sess, _ := store.Get(testUser)
	assert.Equal(t, PhaseAwaitingName, sess.Phase)

	say(m, "週次定例")
	say(m, "明日")
	assert.Equal(t, MsgBadDate, msgr.lastReply())
	sess, _ = store.Get(testUser)
	assert.Equal(t, PhaseAwaitingDate, sess.Phase)

	say(m, "2024/01/15")
	say(m, "昼すぎ")
	assert.Equal(t, MsgBadTime, msgr.lastReply())
	sess, _ = store.Get(testUser)
	assert.Equal(t, PhaseAwaitingTime, sess.Phase)

	say(m, "14:00")
	say(m, "長め")
	assert.Equal(t, MsgBadDuration, msgr.lastReply())
	sess, _ = store.Get(testUser)
	assert.Equal(t, PhaseAwaitingDuration, sess.Phase)
}

func TestConfirmingUnknownAnswer(t *testing.T) {
	m, store, msgr, sched := newTestMachine()

	say(m, "会議作成")
	say(m, "週次定例")
	say(m, "2024/01/15")
	say(m, "14:00")
	say(m, "60")

	say(m, "たぶん")
	assert.Equal(t, MsgConfirmChoice, msgr.lastReply())
	assert.Empty(t, sched.requests)
	sess, _ := store.Get(testUser)
	assert.Equal(t, PhaseConfirming, sess.Phase)
}

func TestIdleMessage(t *testing.T) {
	m, _, msgr, _ := newTestMachine()

	say(m, "こんにちは")
	assert.Equal(t, MsgIdleHint, msgr.lastReply())
}

func TestTriggerRestartsMidDialogue(t *testing.T) {
	m, store, msgr, _ := newTestMachine()

	say(m, "会議作成")
	say(m, "週次定例")
	say(m, "会議作成")

	assert.Equal(t, MsgAskName, msgr.lastReply())
	sess, _ := store.Get(testUser)
	assert.Equal(t, PhaseAwaitingName, sess.Phase)
	assert.Empty(t, sess.Draft.Name, "restart discards the previous draft")
}

func TestHandoffFailurePushes(t *testing.T) {
	m, store, msgr, sched := newTestMachine()
	sched.err = errors.New("queue full")

	say(m, "会議作成")
	say(m, "週次定例")
	say(m, "2024/01/15")
	say(m, "14:00")
	say(m, "60")
	say(m, "はい")

	assert.Equal(t, MsgProcessing, msgr.lastReply())
	require.Len(t, msgr.pushes, 1)
	assert.Equal(t, MsgCreateFailed, msgr.pushes[0])
	_, ok := store.Get(testUser)
	assert.False(t, ok)
}

func TestPanicAnswersWithRetryPrompt(t *testing.T) {
	m, _, msgr, sched := newTestMachine()
	sched.panicMsg = "scheduler exploded"

	say(m, "会議作成")
	say(m, "週次定例")
	say(m, "2024/01/15")
	say(m, "14:00")
	say(m, "60")

	require.NotPanics(t, func() { say(m, "はい") })
	assert.Equal(t, MsgGenericError, msgr.lastReply())
}
