package dto

import "time"

// ========== Settlement sweep DTOs ==========

// SweepResult is the summary returned by one settlement sweep.
type SweepResult struct {
	SweepID     string    `json:"sweep_id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	TotalAlarms int       `json:"total_alarms"`
	Processed   int       `json:"processed"`
	Charged     int       `json:"charged"`
	Skipped     int       `json:"skipped"`
	Errors      int       `json:"errors"`
}

// SweepStatusData reports the scheduler's recent activity.
type SweepStatusData struct {
	Running      bool         `json:"running"`
	LastResult   *SweepResult `json:"last_result,omitempty"`
	NextSweepAt  *time.Time   `json:"next_sweep_at,omitempty"`
	IntervalSecs int          `json:"interval_seconds"`
	GraceMinutes int          `json:"grace_minutes"`
}
