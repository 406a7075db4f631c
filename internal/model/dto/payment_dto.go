package dto

import "time"

// ========== Payment DTOs ==========

// SetupIntentResponse carries what the client needs to collect a payment
// method through the processor's SDK.
type SetupIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	CustomerID   string `json:"customer_id"`
}

// TransactionData is the wire shape of one penalty transaction.
type TransactionData struct {
	ID          string    `json:"id"`
	ChargeDate  string    `json:"charge_date"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	FailureCode *string   `json:"failure_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransactionListResponse wraps the user's penalty history.
type TransactionListResponse struct {
	Transactions []TransactionData `json:"transactions"`
	TotalCharged int64             `json:"total_charged"`
}
