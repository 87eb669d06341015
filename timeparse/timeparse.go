// Package timeparse validates and formats the free-form date, time, and
// duration answers users type during meeting setup.
package timeparse

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Meetings may not be scheduled in years before this.
const minYear = 2024

// Duration bounds in minutes, 1 minute up to 8 hours.
const (
	minDuration = 1
	maxDuration = 480
)

// Unpadded layouts accept both "2024/1/5" and "2024/01/05".
var dateLayouts = []string{
	"2006/1/2",
	"2006-1-2",
	"1/2/2006",
	"1-2-2006",
	"2006年1月2日",
}

var timeLayouts = []string{
	"15:4",
	"15時4分",
	"3:4 PM",
	"3時4分 PM",
}

// ParseDate validates a date answer. The first matching layout wins; a
// matched date before the year floor is rejected outright.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() < minYear {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// ParseTime validates a time-of-day answer and returns hour and minute.
func ParseTime(s string) (int, int, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return t.Hour(), t.Minute(), true
	}
	return 0, 0, false
}

// ParseDuration validates a meeting length answer in minutes. It accepts a
// bare integer, or takes the first number when the answer mentions 分.
func ParseDuration(s string) (int, bool) {
	s = strings.TrimSpace(s)

	if isDigits(s) {
		n, err := strconv.Atoi(s)
		if err == nil && n >= minDuration && n <= maxDuration {
			return n, true
		}
		return 0, false
	}

	if strings.Contains(s, "分") {
		if digits := firstDigitRun(s); digits != "" {
			n, err := strconv.Atoi(digits)
			if err == nil && n >= minDuration && n <= maxDuration {
				return n, true
			}
		}
	}

	return 0, false
}

// Combine merges a parsed date with a parsed time-of-day in the given zone.
func Combine(date time.Time, hour, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
}

// FormatDateTime renders a start time the way confirmation prompts show it.
func FormatDateTime(t time.Time) string {
	return t.Format("2006年01月02日 15:04")
}

// FormatDuration renders minutes as 45分, 1時間, or 1時間5分.
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d分", minutes)
	}
	hours := minutes / 60
	rem := minutes % 60
	if rem == 0 {
		return fmt.Sprintf("%d時間", hours)
	}
	return fmt.Sprintf("%d時間%d分", hours, rem)
}

// MeetingPassword returns a 6-digit numeric meeting password.
func MeetingPassword() string {
	return fmt.Sprintf("%06d", rand.IntN(1000000))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func firstDigitRun(s string) string {
	start := -1
	for i, r := range s {
		if unicode.IsDigit(r) && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return s[start:i]
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}
