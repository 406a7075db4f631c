package repository

import (
	"fmt"
	"os"

	"gorm.io/gen"

	"WakeOrPay/internal/model"
	"WakeOrPay/storage/database"
)

// ========== User queriers ==========

type UserQuerier interface {
	// GetByPublicID looks a user up by the id exposed in the API.
	//
	// SELECT * FROM @@table WHERE public_id = @publicID LIMIT 1
	GetByPublicID(publicID int64) (*gen.T, error)

	// GetByEmail looks a user up by email for token issuance.
	//
	// SELECT * FROM @@table WHERE email = @email LIMIT 1
	GetByEmail(email string) (*gen.T, error)
}

// ========== Alarm queriers ==========

type AlarmQuerier interface {
	// GetActiveByUserID returns the user's single active alarm.
	//
	// SELECT * FROM @@table
	// WHERE user_id = @userID AND active = true
	// LIMIT 1
	GetActiveByUserID(userID int64) (*gen.T, error)

	// ListActive returns every active alarm, the sweep's working set.
	//
	// SELECT * FROM @@table
	// WHERE active = true
	// ORDER BY id ASC
	ListActive() ([]*gen.T, error)

	// ListByUserID returns the user's alarms, active first.
	//
	// SELECT * FROM @@table
	// WHERE user_id = @userID
	// ORDER BY active DESC, created_at DESC
	ListByUserID(userID int64) ([]*gen.T, error)
}

// ========== VerificationRecord queriers ==========

type VerificationRecordQuerier interface {
	// GetByUserIDAndDate fetches one local-date occurrence row.
	//
	// SELECT * FROM @@table
	// WHERE user_id = @userID AND date = @date::date
	// LIMIT 1
	GetByUserIDAndDate(userID int64, date string) (*gen.T, error)

	// ListRecentByUserID feeds streak computation and history.
	//
	// SELECT * FROM @@table
	// WHERE user_id = @userID
	// ORDER BY date DESC
	// LIMIT @limit
	ListRecentByUserID(userID int64, limit int) ([]*gen.T, error)

	// ListUnverifiedOnDate lists occurrences still unresolved on a date.
	//
	// SELECT * FROM @@table
	// WHERE date = @date::date AND verified = false
	ListUnverifiedOnDate(date string) ([]*gen.T, error)
}

// ========== WakeAttempt queriers ==========

type WakeAttemptQuerier interface {
	// ListByUserIDAndDate returns the day's attempts, newest first.
	//
	// SELECT * FROM @@table
	// WHERE user_id = @userID AND date = @date::date
	// ORDER BY attempted_at DESC
	ListByUserIDAndDate(userID int64, date string) ([]*gen.T, error)
}

// ========== PaymentTransaction queriers ==========

type PaymentTransactionQuerier interface {
	// GetByUserIDAndChargeDate enforces the one-penalty-per-day read path.
	//
	// SELECT * FROM @@table
	// WHERE user_id = @userID AND charge_date = @date::date
	// LIMIT 1
	GetByUserIDAndChargeDate(userID int64, date string) (*gen.T, error)

	// GetByProcessorIntentID resolves webhook events to transactions.
	//
	// SELECT * FROM @@table
	// WHERE processor_intent_id = @intentID
	// LIMIT 1
	GetByProcessorIntentID(intentID string) (*gen.T, error)

	// ListByUserID returns the user's penalty history, newest first.
	//
	// SELECT * FROM @@table
	// WHERE user_id = @userID
	// ORDER BY created_at DESC
	// LIMIT @limit
	ListByUserID(userID int64, limit int) ([]*gen.T, error)

	// SumChargedByUserID totals settled penalties for the history screen.
	//
	// SELECT COALESCE(SUM(amount), 0)
	// FROM @@table
	// WHERE user_id = @userID AND status IN ('succeeded', 'pending')
	SumChargedByUserID(userID int64) (int64, error)
}

func Generate() error {
	if err := database.Init(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// migrations must run first so the tables exist
	if err := database.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migration: %w", err)
	}

	db := database.DB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./internal/repository/query",
		ModelPkgPath:      "WakeOrPay/internal/model",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface | gen.WithoutContext,
		FieldNullable:     true,
		FieldCoverable:    false,
		FieldSignable:     false,
		FieldWithIndexTag: false,
		FieldWithTypeTag:  true,
	})

	g.UseDB(db)

	g.ApplyBasic(
		&model.User{},
		&model.Alarm{},
		&model.VerificationRecord{},
		&model.WakeAttempt{},
		&model.PaymentTransaction{},
	)

	g.ApplyInterface(func(UserQuerier) {}, &model.User{})
	g.ApplyInterface(func(AlarmQuerier) {}, &model.Alarm{})
	g.ApplyInterface(func(VerificationRecordQuerier) {}, &model.VerificationRecord{})
	g.ApplyInterface(func(WakeAttemptQuerier) {}, &model.WakeAttempt{})
	g.ApplyInterface(func(PaymentTransactionQuerier) {}, &model.PaymentTransaction{})

	g.Execute()

	return nil
}

func RunGenerate() {
	if err := Generate(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate code: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Code generation completed successfully!")
}
