package model

// VerificationMethod enumerates how a wake-up can be proven.
type VerificationMethod string

const (
	VerificationMethodFace  VerificationMethod = "face"
	VerificationMethodShake VerificationMethod = "shake"
	VerificationMethodBoth  VerificationMethod = "both"
)

// ValidVerificationMethod reports whether m is an accepted method.
func ValidVerificationMethod(m VerificationMethod) bool {
	switch m {
	case VerificationMethodFace, VerificationMethodShake, VerificationMethodBoth:
		return true
	}
	return false
}

// Alarm is the long-lived wake-up configuration. Alarms are never hard
// deleted while history references them; Deactivate flips IsActive instead.
// The partial unique index keeps at most one active alarm per user, which is
// what makes the (user, date) charge key well-defined.
type Alarm struct {
	BaseModel
	PublicID           int64              `gorm:"uniqueIndex;not null" json:"public_id"`
	UserID             int64              `gorm:"not null;index:idx_alarms_user;index:idx_alarms_user_active,unique,where:is_active = true" json:"user_id"`
	AlarmTime          string             `gorm:"type:time;not null" json:"alarm_time"` // HH:MM:SS wall clock
	Timezone           string             `gorm:"type:varchar(64);not null;default:'Asia/Tokyo'" json:"timezone"`
	IsActive           bool               `gorm:"not null;default:true" json:"is_active"`
	PenaltyAmount      int64              `gorm:"not null" json:"penalty_amount"` // minor currency units
	Currency           string             `gorm:"type:varchar(8);not null;default:'jpy'" json:"currency"`
	VerificationMethod VerificationMethod `gorm:"type:varchar(8);not null;default:'face'" json:"verification_method"`
}

func (Alarm) TableName() string {
	return "alarms"
}
