package dto

import "time"

// ========== Alarm DTOs ==========

// CreateAlarmRequest creates a new alarm. AlarmTime is local wall-clock time
// in HH:MM or HH:MM:SS.
type CreateAlarmRequest struct {
	AlarmTime          string `json:"alarm_time" binding:"required"`
	Timezone           string `json:"timezone,omitempty"`
	PenaltyAmount      int64  `json:"penalty_amount,omitempty"`
	Currency           string `json:"currency,omitempty"`
	VerificationMethod string `json:"verification_method,omitempty"`
}

// UpdateAlarmRequest patches an existing alarm. Nil fields are left unchanged.
type UpdateAlarmRequest struct {
	AlarmTime          *string `json:"alarm_time,omitempty"`
	Timezone           *string `json:"timezone,omitempty"`
	IsActive           *bool   `json:"is_active,omitempty"`
	PenaltyAmount      *int64  `json:"penalty_amount,omitempty"`
	VerificationMethod *string `json:"verification_method,omitempty"`
}

// AlarmData is the wire shape of one alarm.
type AlarmData struct {
	ID                 string    `json:"id"`
	AlarmTime          string    `json:"alarm_time"`
	Timezone           string    `json:"timezone"`
	IsActive           bool      `json:"is_active"`
	PenaltyAmount      int64     `json:"penalty_amount"`
	Currency           string    `json:"currency"`
	VerificationMethod string    `json:"verification_method"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// AlarmListResponse wraps the user's alarms.
type AlarmListResponse struct {
	Alarms []AlarmData `json:"alarms"`
	Total  int         `json:"total"`
}
