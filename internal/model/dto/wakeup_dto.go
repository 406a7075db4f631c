package dto

import "time"

// ========== Wake verification DTOs ==========

// VerifyWakeUpRequest submits a live verification proof.
type VerifyWakeUpRequest struct {
	Method string `json:"method" binding:"required"`
	// Optional client-reported capture time, RFC3339. Server clock wins when
	// it is absent or in the future.
	CapturedAt string `json:"captured_at,omitempty"`
}

// VerifyWakeUpResponse reports the outcome of a verification attempt.
type VerifyWakeUpResponse struct {
	Verified       bool       `json:"verified"`
	OnTime         bool       `json:"on_time"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	Date           string     `json:"date"`
	Streak         int        `json:"streak"`
	BadgesAwarded  []string   `json:"badges_awarded,omitempty"`
	AlreadyCharged bool       `json:"already_charged"`
}

// TodayStatusData describes the current occurrence of the user's active alarm.
type TodayStatusData struct {
	Date              string     `json:"date"`
	AlarmID           string     `json:"alarm_id"`
	AlarmTime         string     `json:"alarm_time"`
	Deadline          time.Time  `json:"deadline"`
	MaxVerifyBy       time.Time  `json:"max_verify_by"`
	Verified          bool       `json:"verified"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
	Charged           bool       `json:"charged"`
	PenaltyAmount     int64      `json:"penalty_amount"`
	Currency          string     `json:"currency"`
	SecondsToDeadline int64      `json:"seconds_to_deadline"`
}

// WakeHistoryItem is one day in the verification history.
type WakeHistoryItem struct {
	Date       string     `json:"date"`
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	Method     *string    `json:"method,omitempty"`
	Charged    bool       `json:"charged"`
	Amount     int64      `json:"amount,omitempty"`
}

// WakeHistoryResponse wraps recent history plus the current streak.
type WakeHistoryResponse struct {
	Days   []WakeHistoryItem `json:"days"`
	Streak int               `json:"streak"`
}
