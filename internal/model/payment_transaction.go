package model

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionSucceeded TransactionStatus = "succeeded"
	TransactionFailed    TransactionStatus = "failed"
	TransactionCanceled  TransactionStatus = "canceled"
)

// PaymentTransaction records one penalty charge. Three uniqueness layers keep
// charges exactly-once: one row per wake attempt, one row per (user, day),
// and one row per processor intent so webhook replays land on the same record.
type PaymentTransaction struct {
	BaseModel
	PublicID          int64             `gorm:"uniqueIndex;not null" json:"public_id"`
	WakeAttemptID     int64             `gorm:"uniqueIndex;not null" json:"wake_attempt_id"`
	UserID            int64             `gorm:"not null;uniqueIndex:idx_transactions_user_charge_date" json:"user_id"`
	ChargeDate        string            `gorm:"type:date;not null;uniqueIndex:idx_transactions_user_charge_date" json:"charge_date"`
	Amount            int64             `gorm:"not null" json:"amount"`
	Currency          string            `gorm:"type:varchar(8);not null" json:"currency"`
	Status            TransactionStatus `gorm:"type:varchar(16);not null;default:pending" json:"status"`
	ProcessorIntentID string            `gorm:"type:varchar(255);uniqueIndex;not null" json:"processor_intent_id"`
	FailureCode       *string           `gorm:"type:varchar(64)" json:"failure_code,omitempty"`
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

func ValidTransactionStatus(s TransactionStatus) bool {
	switch s {
	case TransactionPending, TransactionSucceeded, TransactionFailed, TransactionCanceled:
		return true
	}
	return false
}
