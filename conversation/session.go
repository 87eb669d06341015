// Package conversation drives the multi-turn dialogue that collects
// meeting parameters from a LINE user before provisioning starts.
package conversation

import "time"

// Phase is where a user currently is in the dialogue.
type Phase string

const (
	PhaseIdle             Phase = ""
	PhaseAwaitingName     Phase = "waiting_for_meeting_name"
	PhaseAwaitingDate     Phase = "waiting_for_date"
	PhaseAwaitingTime     Phase = "waiting_for_time"
	PhaseAwaitingDuration Phase = "waiting_for_duration"
	PhaseConfirming       Phase = "confirming"
)

// Draft accumulates the answers collected so far.
type Draft struct {
	Name     string
	Date     time.Time
	HasDate  bool
	Hour     int
	Minute   int
	HasTime  bool
	Duration int
}

// Session is the per-user dialogue state. It is held and passed by value;
// the store never hands out shared references.
type Session struct {
	Phase Phase
	Draft Draft
}
