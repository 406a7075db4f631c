package model

import "time"

// VerificationRecord is the per-user-per-day wake verification row. The
// unique (user_id, date) index is the contention point between the live
// endpoint and the sweep; both sides create it with insert-if-absent and the
// loser adopts the winner's row. Verified only ever flips false -> true.
type VerificationRecord struct {
	BaseModel
	UserID               int64      `gorm:"not null;uniqueIndex:idx_verifications_user_date" json:"user_id"`
	Date                 string     `gorm:"type:date;not null;uniqueIndex:idx_verifications_user_date" json:"date"` // YYYY-MM-DD in the alarm's timezone
	AlarmTime            string     `gorm:"type:time;not null" json:"alarm_time"`
	VerificationDeadline time.Time  `gorm:"type:timestamptz;not null" json:"verification_deadline"`
	Verified             bool       `gorm:"not null;default:false" json:"verified"`
	VerifiedAt           *time.Time `gorm:"type:timestamptz" json:"verified_at,omitempty"`
	VerificationMethod   *string    `gorm:"type:varchar(8)" json:"verification_method,omitempty"`
}

func (VerificationRecord) TableName() string {
	return "wake_verifications"
}
