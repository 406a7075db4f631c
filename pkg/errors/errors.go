package errors

func (d Definition) Error() string {
	return d.Message
}

// Definition carries a business error code and its default message.
type Definition struct {
	Code    string
	Message string
}

// Auth errors.
var (
	Unauthorized        = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	SchedulerAuthFailed = Definition{Code: "SCHEDULER_AUTH_FAILED", Message: "Scheduler authentication failed"}
	InvalidUserID       = Definition{Code: "INVALID_USER_ID", Message: "Invalid user ID format"}
)

// Alarm errors.
var (
	AlarmNotFound      = Definition{Code: "ALARM_NOT_FOUND", Message: "Alarm not found or not active"}
	AlarmTimeInvalid   = Definition{Code: "ALARM_TIME_INVALID", Message: "Alarm time must be HH:MM or HH:MM:SS"}
	AlarmMethodInvalid = Definition{Code: "ALARM_METHOD_INVALID", Message: "Verification method must be face, shake or both"}
	TimezoneInvalid    = Definition{Code: "TIMEZONE_INVALID", Message: "Unknown IANA timezone"}
	PenaltyInvalid     = Definition{Code: "PENALTY_INVALID", Message: "Penalty amount must be positive"}
)

// Wake verification errors.
var (
	VerificationWindowExpired = Definition{Code: "VERIFICATION_WINDOW_EXPIRED", Message: "Verification window has expired"}
	VerificationMethodInvalid = Definition{Code: "VERIFICATION_METHOD_INVALID", Message: "Verification method invalid"}
)

// Settlement errors.
var (
	SweepInProgress = Definition{Code: "SWEEP_IN_PROGRESS", Message: "A settlement sweep is already running"}
)

// Rate limiting.
var (
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests, slow down"}
)

// Payment errors.
var (
	PaymentDeclined        = Definition{Code: "PAYMENT_DECLINED", Message: "Payment was declined by the processor"}
	PaymentSetupFailed     = Definition{Code: "PAYMENT_SETUP_FAILED", Message: "Failed to create payment setup"}
	WebhookSignatureFailed = Definition{Code: "WEBHOOK_SIGNATURE_FAILED", Message: "Webhook signature verification failed"}
)

// Lookup maps error codes back to their definitions.
var Lookup = map[string]Definition{
	Unauthorized.Code:              Unauthorized,
	SchedulerAuthFailed.Code:       SchedulerAuthFailed,
	InvalidUserID.Code:             InvalidUserID,
	AlarmNotFound.Code:             AlarmNotFound,
	AlarmTimeInvalid.Code:          AlarmTimeInvalid,
	AlarmMethodInvalid.Code:        AlarmMethodInvalid,
	TimezoneInvalid.Code:           TimezoneInvalid,
	PenaltyInvalid.Code:            PenaltyInvalid,
	VerificationWindowExpired.Code: VerificationWindowExpired,
	VerificationMethodInvalid.Code: VerificationMethodInvalid,
	SweepInProgress.Code:           SweepInProgress,
	TooManyRequests.Code:           TooManyRequests,
	PaymentDeclined.Code:           PaymentDeclined,
	PaymentSetupFailed.Code:        PaymentSetupFailed,
	WebhookSignatureFailed.Code:    WebhookSignatureFailed,
}

// Get returns the Definition for a code, or a generic one if unknown.
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}
