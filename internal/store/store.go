// Package store is the persistence boundary. The GORM implementation backs
// production; the memory implementation backs tests and single-node dev
// deployments without Postgres.
package store

import (
	"context"
	"errors"
	"time"

	"WakeOrPay/internal/model"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint. Callers treat it as "someone else already did this".
	ErrDuplicate = errors.New("store: duplicate")
)

// Store is everything the services need from persistence. Uniqueness
// guarantees (one active alarm per user, one verification row per user and
// day, one transaction per user and charge date) are enforced here, not in
// the callers.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByPublicID(ctx context.Context, publicID int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	SetUserStripeCustomerID(ctx context.Context, userID int64, customerID string) error

	// Alarms.
	CreateAlarm(ctx context.Context, alarm *model.Alarm) error
	GetAlarmByPublicID(ctx context.Context, publicID int64) (*model.Alarm, error)
	GetActiveAlarm(ctx context.Context, userID int64) (*model.Alarm, error)
	ListAlarms(ctx context.Context, userID int64) ([]*model.Alarm, error)
	ListActiveAlarms(ctx context.Context) ([]*model.Alarm, error)
	UpdateAlarm(ctx context.Context, alarm *model.Alarm) error
	// ActivateAlarm makes the given alarm the user's only active one.
	ActivateAlarm(ctx context.Context, userID, alarmID int64) error
	DeactivateAlarm(ctx context.Context, userID, alarmID int64) error

	// Verification records. GetOrCreateVerification is atomic: concurrent
	// callers for the same (user, date) all observe the same row.
	GetOrCreateVerification(ctx context.Context, rec *model.VerificationRecord) (*model.VerificationRecord, error)
	GetVerification(ctx context.Context, userID int64, date string) (*model.VerificationRecord, error)
	// MarkVerified flips verified=false to true. It reports false without
	// error when the record was already verified.
	MarkVerified(ctx context.Context, userID int64, date string, at time.Time, method string) (bool, error)
	ListRecentVerifications(ctx context.Context, userID int64, limit int) ([]*model.VerificationRecord, error)

	// Wake attempts are append-only.
	CreateWakeAttempt(ctx context.Context, attempt *model.WakeAttempt) error
	ListWakeAttempts(ctx context.Context, userID int64, date string) ([]*model.WakeAttempt, error)

	// Payment transactions. CreateTransaction returns ErrDuplicate when a
	// row for the same wake attempt, same (user, charge date) or same
	// processor intent already exists.
	CreateTransaction(ctx context.Context, tx *model.PaymentTransaction) error
	GetTransactionByUserDate(ctx context.Context, userID int64, chargeDate string) (*model.PaymentTransaction, error)
	GetTransactionByIntentID(ctx context.Context, intentID string) (*model.PaymentTransaction, error)
	UpdateTransactionStatus(ctx context.Context, intentID string, status model.TransactionStatus, failureCode *string) error
	ListTransactions(ctx context.Context, userID int64, limit int) ([]*model.PaymentTransaction, error)
}
