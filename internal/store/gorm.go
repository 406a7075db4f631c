package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"WakeOrPay/internal/model"
)

// GormStore implements Store on Postgres through GORM.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

// ---- users ----

func (s *GormStore) CreateUser(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translateErr(err))
	}
	return nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByPublicID(ctx context.Context, publicID int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("public_id = ?", publicID).First(&user).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (s *GormStore) SetUserStripeCustomerID(ctx context.Context, userID int64, customerID string) error {
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("stripe_customer_id", customerID).Error
	if err != nil {
		return fmt.Errorf("failed to set customer id: %w", translateErr(err))
	}
	return nil
}

// ---- alarms ----

func (s *GormStore) CreateAlarm(ctx context.Context, alarm *model.Alarm) error {
	// A new active alarm replaces the previous one inside a single
	// transaction so the partial unique index never trips mid-switch.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if alarm.IsActive {
			if err := tx.Model(&model.Alarm{}).
				Where("user_id = ? AND is_active = ?", alarm.UserID, true).
				Update("is_active", false).Error; err != nil {
				return fmt.Errorf("failed to deactivate previous alarm: %w", err)
			}
		}
		if err := tx.Create(alarm).Error; err != nil {
			return fmt.Errorf("failed to create alarm: %w", translateErr(err))
		}
		return nil
	})
}

func (s *GormStore) GetAlarmByPublicID(ctx context.Context, publicID int64) (*model.Alarm, error) {
	var alarm model.Alarm
	if err := s.db.WithContext(ctx).Where("public_id = ?", publicID).First(&alarm).Error; err != nil {
		return nil, translateErr(err)
	}
	return &alarm, nil
}

func (s *GormStore) GetActiveAlarm(ctx context.Context, userID int64) (*model.Alarm, error) {
	var alarm model.Alarm
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&alarm).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &alarm, nil
}

func (s *GormStore) ListAlarms(ctx context.Context, userID int64) ([]*model.Alarm, error) {
	var alarms []*model.Alarm
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&alarms).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return alarms, nil
}

func (s *GormStore) ListActiveAlarms(ctx context.Context) ([]*model.Alarm, error) {
	var alarms []*model.Alarm
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&alarms).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return alarms, nil
}

func (s *GormStore) UpdateAlarm(ctx context.Context, alarm *model.Alarm) error {
	if err := s.db.WithContext(ctx).Save(alarm).Error; err != nil {
		return fmt.Errorf("failed to update alarm: %w", translateErr(err))
	}
	return nil
}

func (s *GormStore) ActivateAlarm(ctx context.Context, userID, alarmID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Alarm{}).
			Where("user_id = ? AND is_active = ? AND id <> ?", userID, true, alarmID).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate previous alarm: %w", err)
		}
		res := tx.Model(&model.Alarm{}).
			Where("id = ? AND user_id = ?", alarmID, userID).
			Update("is_active", true)
		if res.Error != nil {
			return fmt.Errorf("failed to activate alarm: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *GormStore) DeactivateAlarm(ctx context.Context, userID, alarmID int64) error {
	res := s.db.WithContext(ctx).Model(&model.Alarm{}).
		Where("id = ? AND user_id = ?", alarmID, userID).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate alarm: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- verification records ----

func (s *GormStore) GetOrCreateVerification(ctx context.Context, rec *model.VerificationRecord) (*model.VerificationRecord, error) {
	// Insert-if-absent on (user_id, date), then read back whichever row won.
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(rec).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert verification: %w", translateErr(err))
	}
	return s.GetVerification(ctx, rec.UserID, rec.Date)
}

func (s *GormStore) GetVerification(ctx context.Context, userID int64, date string) (*model.VerificationRecord, error) {
	var rec model.VerificationRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&rec).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &rec, nil
}

func (s *GormStore) MarkVerified(ctx context.Context, userID int64, date string, at time.Time, method string) (bool, error) {
	// Conditional update keeps the first verification's timestamp; replays
	// and double taps affect zero rows.
	res := s.db.WithContext(ctx).Model(&model.VerificationRecord{}).
		Where("user_id = ? AND date = ? AND verified = ?", userID, date, false).
		Updates(map[string]interface{}{
			"verified":            true,
			"verified_at":         at,
			"verification_method": method,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark verified: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) ListRecentVerifications(ctx context.Context, userID int64, limit int) ([]*model.VerificationRecord, error) {
	var recs []*model.VerificationRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return recs, nil
}

// ---- wake attempts ----

func (s *GormStore) CreateWakeAttempt(ctx context.Context, attempt *model.WakeAttempt) error {
	if err := s.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create wake attempt: %w", translateErr(err))
	}
	return nil
}

func (s *GormStore) ListWakeAttempts(ctx context.Context, userID int64, date string) ([]*model.WakeAttempt, error) {
	var attempts []*model.WakeAttempt
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("attempted_at ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return attempts, nil
}

// ---- payment transactions ----

func (s *GormStore) CreateTransaction(ctx context.Context, tx *model.PaymentTransaction) error {
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", translateErr(err))
	}
	return nil
}

func (s *GormStore) GetTransactionByUserDate(ctx context.Context, userID int64, chargeDate string) (*model.PaymentTransaction, error) {
	var tx model.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND charge_date = ?", userID, chargeDate).
		First(&tx).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &tx, nil
}

func (s *GormStore) GetTransactionByIntentID(ctx context.Context, intentID string) (*model.PaymentTransaction, error) {
	var tx model.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("processor_intent_id = ?", intentID).
		First(&tx).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &tx, nil
}

func (s *GormStore) UpdateTransactionStatus(ctx context.Context, intentID string, status model.TransactionStatus, failureCode *string) error {
	updates := map[string]interface{}{"status": status}
	if failureCode != nil {
		updates["failure_code"] = *failureCode
	}
	res := s.db.WithContext(ctx).Model(&model.PaymentTransaction{}).
		Where("processor_intent_id = ?", intentID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update transaction status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListTransactions(ctx context.Context, userID int64, limit int) ([]*model.PaymentTransaction, error) {
	var txs []*model.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("charge_date DESC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return txs, nil
}
