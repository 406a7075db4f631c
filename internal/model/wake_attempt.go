package model

import "time"

// WakeAttempt is the append-only log of verification attempts. The sweep
// synthesizes a terminal failed attempt when the deadline passes without a
// verified record; the occurrence itself is resolved through
// VerificationRecord and PaymentTransaction, never by rewriting attempts.
type WakeAttempt struct {
	BaseModel
	PublicID           int64     `gorm:"uniqueIndex;not null" json:"public_id"`
	AlarmID            int64     `gorm:"not null;index:idx_wake_attempts_alarm" json:"alarm_id"`
	UserID             int64     `gorm:"not null;index:idx_wake_attempts_user_date" json:"user_id"`
	Date               string    `gorm:"type:date;not null;index:idx_wake_attempts_user_date" json:"date"`
	Success            bool      `gorm:"not null" json:"success"`
	VerificationMethod *string   `gorm:"type:varchar(8)" json:"verification_method,omitempty"`
	FailureReason      *string   `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`
	AttemptedAt        time.Time `gorm:"type:timestamptz;not null" json:"attempted_at"`
}

func (WakeAttempt) TableName() string {
	return "wake_attempts"
}
