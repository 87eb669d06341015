package meetings

import (
	"fmt"
	"time"

	"github.com/Fuu-choco/zoom-line-bot/timeparse"
)

// Info is the data shown in the success push message.
type Info struct {
	MeetingName     string
	StartTime       time.Time
	Duration        int
	MeetingURL      string
	MeetingPassword string
	MeetingID       string
}

// FormatMeetingInfo renders the summary block pushed after provisioning.
func FormatMeetingInfo(info Info) string {
	return fmt.Sprintf(
		"📅 会議名: %s\n🕐 日時: %s\n⏱️ 時間: %s\n🔗 会議URL: %s\n🔑 パスワード: %s\n🆔 会議ID: %s",
		info.MeetingName,
		timeparse.FormatDateTime(info.StartTime),
		timeparse.FormatDuration(info.Duration),
		info.MeetingURL,
		info.MeetingPassword,
		info.MeetingID,
	)
}
