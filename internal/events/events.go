// Package events holds the bus message types shared by the admin api and
// the send scheduler.
package events

import "time"

// ForceCommand asks the scheduler to run now, bypassing the throttle.
type ForceCommand struct {
	RequestID   string    `json:"request_id"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// ScanSummary summarizes one scanner pass.
type ScanSummary struct {
	Examined int `json:"examined"`
	Sent     int `json:"sent"`
	Failed   int `json:"failed"`
}

// UpdateNotice is published after a pass that sent at least one email, so
// listing views know campaign rows changed underneath them.
type UpdateNotice struct {
	RunID       string      `json:"run_id"`
	Summary     ScanSummary `json:"summary"`
	CompletedAt time.Time   `json:"completed_at"`
}
