package model

// Queue message definitions. MessageID is the consumer-side idempotency key;
// redelivered messages with an already-processed MessageID are skipped.

// PenaltyChargedMessage is published by the scheduler after a sweep charges a
// penalty. The worker consumes it to fan out notifications and stats.
type PenaltyChargedMessage struct {
	MessageID     string `json:"message_id"`
	SweepID       string `json:"sweep_id"`
	ChargeDate    string `json:"charge_date"`
	ScheduledAt   string `json:"scheduled_at"`
	UserID        int64  `json:"user_id"`
	AlarmID       int64  `json:"alarm_id"`
	TransactionID int64  `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

// PaymentStatusMessage is published when the processor webhook reports a
// terminal state for a payment intent.
type PaymentStatusMessage struct {
	MessageID     string `json:"message_id"`
	IntentID      string `json:"intent_id"`
	Status        string `json:"status"`
	OccurredAt    string `json:"occurred_at"`
	UserID        int64  `json:"user_id"`
	TransactionID int64  `json:"transaction_id"`
}

// ReconciliationMessage is published when a verification lands after the
// penalty already charged. Downstream review decides whether to refund.
type ReconciliationMessage struct {
	MessageID     string `json:"message_id"`
	ChargeDate    string `json:"charge_date"`
	VerifiedAt    string `json:"verified_at"`
	UserID        int64  `json:"user_id"`
	TransactionID int64  `json:"transaction_id"`
	Reason        string `json:"reason"`
}
