package model

import "time"

type TimerType string

const (
	TimerTypeSleep   TimerType = "sleep"
	TimerTypeWakeup  TimerType = "wakeup"
	TimerTypeGeneric TimerType = "generic"
)

// triggerLayout is the firmware's local-time timestamp format.
const triggerLayout = "2006-01-02T15:04:05"

type TimerAction struct {
	Device      string `json:"device"`
	Action      string `json:"action"`
	Repetitions int    `json:"repetitions,omitempty"`
	DelayMs     int    `json:"delay_ms,omitempty"`
}

type Timer struct {
	ID          string        `json:"id"`
	Type        TimerType     `json:"type"`
	Label       string        `json:"label"`
	CreatedAt   string        `json:"created_at,omitempty"`
	TriggerTime string        `json:"trigger_time"`
	TriggerTS   int64         `json:"trigger_ts,omitempty"`
	Actions     []TimerAction `json:"actions"`
}

// Trigger parses TriggerTime, falling back to TriggerTS.
func (t Timer) Trigger() (time.Time, bool) {
	if ts, err := time.ParseInLocation(triggerLayout, t.TriggerTime, time.Local); err == nil {
		return ts, true
	}
	if ts, err := time.Parse(time.RFC3339, t.TriggerTime); err == nil {
		return ts, true
	}
	if t.TriggerTS > 0 {
		return time.Unix(t.TriggerTS, 0), true
	}
	return time.Time{}, false
}

// Remaining returns the time left before the timer fires, zero once due.
func (t Timer) Remaining(now time.Time) time.Duration {
	ts, ok := t.Trigger()
	if !ok || !ts.After(now) {
		return 0
	}
	return ts.Sub(now)
}

type CreateTimerRequest struct {
	Label        string        `json:"label"`
	Type         TimerType     `json:"type"`
	DelayMinutes int           `json:"delay_minutes"`
	Actions      []TimerAction `json:"actions"`
}

// CloneTimers deep-copies a timer list, actions included.
func CloneTimers(timers []Timer) []Timer {
	out := make([]Timer, len(timers))
	for i, t := range timers {
		if t.Actions != nil {
			t.Actions = append([]TimerAction{}, t.Actions...)
		}
		out[i] = t
	}
	return out
}
