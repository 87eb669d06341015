package conversation

import (
	"fmt"
	"time"

	"github.com/Fuu-choco/zoom-line-bot/timeparse"
)

// User inputs the dialogue reacts to.
const (
	TriggerCreate = "会議作成"
	AnswerYes     = "はい"
	AnswerNo      = "いいえ"
)

// Bot replies.
const (
	MsgAskName       = "会議名を教えてください"
	MsgNameRequired  = "会議名を入力してください"
	MsgAskDate       = "日付を教えてください（例：2024/01/15）"
	MsgBadDate       = "正しい日付を入力してください（例：2024/01/15）"
	MsgAskTime       = "開始時間を教えてください（例：14:00）"
	MsgBadTime       = "正しい時間を入力してください（例：14:00）"
	MsgAskDuration   = "会議時間を教えてください（例：60分）"
	MsgBadDuration   = "正しい時間を入力してください（例：60分）"
	MsgConfirmChoice = "「はい」または「いいえ」でお答えください。"
	MsgIdleHint      = "「会議作成」と入力してください"
	MsgCancelled     = "会議作成をキャンセルしました。"
	MsgProcessing    = "会議を作成中です... しばらくお待ちください。"
	MsgGenericError  = "エラーが発生しました。もう一度お試しください。"
	MsgCreateFailed  = "会議作成中にエラーが発生しました。もう一度お試しください。"
)

// ConfirmationPrompt renders the summary shown before the user commits.
func ConfirmationPrompt(name string, startAt time.Time, durationMin int) string {
	return fmt.Sprintf(
		"以下の内容で会議を作成しますか？\n\n📅 会議名: %s\n🕐 日時: %s\n⏱️ 時間: %s\n\n%s",
		name,
		timeparse.FormatDateTime(startAt),
		timeparse.FormatDuration(durationMin),
		MsgConfirmChoice,
	)
}
