package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"WakeOrPay/internal/cache"
	"WakeOrPay/internal/deadline"
	"WakeOrPay/internal/model"
	"WakeOrPay/internal/model/dto"
	"WakeOrPay/internal/queue"
	"WakeOrPay/internal/store"
	"WakeOrPay/pkg/logger"
	"WakeOrPay/pkg/metrics"
	"WakeOrPay/pkg/payment"
	"WakeOrPay/pkg/snowflake"
)

// ErrSweepInProgress is returned when a sweep is triggered while the
// previous one is still running.
var ErrSweepInProgress = errors.New("settlement sweep already in progress")

const sweepLockTTL = 5 * time.Minute

// SettlementService scans active alarms past their deadline and issues
// penalty charges. Per-alarm failures are isolated: one bad alarm never
// aborts the rest of the sweep.
type SettlementService struct {
	store    store.Store
	payments payment.Client
	now      func() time.Time

	sweeping atomic.Bool

	mu         sync.Mutex
	lastResult *dto.SweepResult
}

var (
	settlementService *SettlementService
	settlementOnce    sync.Once
)

func Settlement() *SettlementService {
	settlementOnce.Do(func() {
		settlementService = NewSettlementService(defaultStore(), payment.GetClient(), time.Now)
	})
	return settlementService
}

func NewSettlementService(st store.Store, pc payment.Client, now func() time.Time) *SettlementService {
	return &SettlementService{
		store:    st,
		payments: pc,
		now:      now,
	}
}

// Sweep runs one settlement pass over all active alarms. Re-running it is
// always safe: verified or already-charged occurrences are processed without
// charging again, and the processor idempotency key pins each (user, date)
// to one charge. Processed counts every due occurrence looked at; Skipped
// counts alarms whose occurrence is not yet due.
func (s *SettlementService) Sweep(ctx context.Context) (*dto.SweepResult, error) {
	if !s.sweeping.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer s.sweeping.Store(false)

	if externalInfra() {
		locked, err := cache.TryLock(ctx, "settlement:sweep", sweepLockTTL)
		if err != nil {
			logger.L().Warn("Sweep lock check failed, proceeding without it", zap.Error(err))
		} else if !locked {
			return nil, ErrSweepInProgress
		} else {
			defer func() {
				if err := cache.Unlock(context.Background(), "settlement:sweep"); err != nil {
					logger.L().Warn("Failed to release sweep lock", zap.Error(err))
				}
			}()
		}
	}

	now := s.now()
	result := &dto.SweepResult{
		SweepID:   uuid.NewString(),
		StartedAt: now,
	}

	alarms, err := s.store.ListActiveAlarms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active alarms: %w", err)
	}
	result.TotalAlarms = len(alarms)

	for _, alarm := range alarms {
		charged, processed, err := s.settleAlarm(ctx, alarm, result.SweepID, now)
		if processed {
			result.Processed++
		}
		if charged {
			result.Charged++
		}
		if err != nil {
			result.Errors++
			logger.L().Error("Failed to settle alarm",
				zap.Int64("alarm_id", alarm.ID),
				zap.Int64("user_id", alarm.UserID),
				zap.String("sweep_id", result.SweepID),
				zap.Error(err),
			)
			continue
		}
		if !processed {
			result.Skipped++
		}
	}

	result.FinishedAt = s.now()
	metrics.GetMetrics().RecordSweep(ctx, result.FinishedAt.Sub(result.StartedAt).Seconds(), result.Charged, result.Errors)

	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()

	logger.L().Info("Settlement sweep finished",
		zap.String("sweep_id", result.SweepID),
		zap.Int("total_alarms", result.TotalAlarms),
		zap.Int("processed", result.Processed),
		zap.Int("charged", result.Charged),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors),
	)
	return result, nil
}

// settleAlarm handles one alarm's current occurrence. processed reports
// whether the occurrence was past its deadline when the sweep looked at it,
// whatever the outcome: already verified, already charged, charged now,
// declined, or errored. Only not-yet-due occurrences stay unprocessed.
func (s *SettlementService) settleAlarm(ctx context.Context, alarm *model.Alarm, sweepID string, now time.Time) (charged, processed bool, err error) {
	loc, err := time.LoadLocation(alarm.Timezone)
	if err != nil {
		logger.L().Warn("Unknown alarm timezone, falling back to UTC",
			zap.Int64("alarm_id", alarm.ID),
			zap.String("timezone", alarm.Timezone),
		)
		loc = time.UTC
	}

	occ, err := deadline.Today(alarm.AlarmTime, now, loc, graceWindow(), maxVerifyWindow())
	if err != nil {
		return false, false, fmt.Errorf("failed to compute occurrence: %w", err)
	}

	// Not due yet. Strictly after the deadline only.
	if !occ.Due(now) {
		return false, false, nil
	}
	processed = true

	rec, err := s.store.GetOrCreateVerification(ctx, &model.VerificationRecord{
		UserID:               alarm.UserID,
		Date:                 occ.Date,
		AlarmTime:            alarm.AlarmTime,
		VerificationDeadline: occ.Deadline,
	})
	if err != nil {
		return false, processed, err
	}
	if rec.Verified {
		return false, processed, nil
	}

	if externalInfra() {
		hinted, err := cache.IsCharged(ctx, occ.Date, alarm.UserID)
		if err != nil {
			logger.L().Warn("Charge hint check failed",
				zap.Int64("user_id", alarm.UserID),
				zap.Error(err),
			)
		} else if hinted {
			return false, processed, nil
		}
	}

	if _, err := s.store.GetTransactionByUserDate(ctx, alarm.UserID, occ.Date); err == nil {
		return false, processed, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, processed, err
	}

	attempt, err := s.recordMissedAttempt(ctx, alarm, occ, now)
	if err != nil {
		return false, processed, err
	}

	// Stable per (user, date): retried sweeps reuse the same intent instead
	// of charging twice.
	idempotencyKey := fmt.Sprintf("penalty_%d_%s", alarm.UserID, occ.Date)
	metadata := map[string]string{
		"user_id":     fmt.Sprintf("%d", alarm.UserID),
		"alarm_id":    fmt.Sprintf("%d", alarm.ID),
		"charge_date": occ.Date,
		"sweep_id":    sweepID,
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, alarm.PenaltyAmount, alarm.Currency, metadata, idempotencyKey)
	if err != nil {
		var decline *payment.DeclineError
		if errors.As(err, &decline) {
			// The processor answered; the charge just failed. Record it as a
			// failed transaction, not a sweep error.
			return false, processed, s.recordDeclinedTransaction(ctx, alarm, occ, attempt, idempotencyKey, decline)
		}
		return false, processed, fmt.Errorf("failed to create payment intent: %w", err)
	}

	publicID, err := snowflake.NextID()
	if err != nil {
		return false, processed, err
	}
	tx := &model.PaymentTransaction{
		PublicID:          publicID,
		WakeAttemptID:     attempt.ID,
		UserID:            alarm.UserID,
		ChargeDate:        occ.Date,
		Amount:            alarm.PenaltyAmount,
		Currency:          alarm.Currency,
		Status:            model.TransactionPending,
		ProcessorIntentID: intent.ID,
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// A concurrent sweep won the insert. The idempotency key already
			// kept the processor side single, so this is a clean skip.
			return false, processed, nil
		}
		return false, processed, err
	}

	if externalInfra() {
		if err := cache.MarkCharged(ctx, occ.Date, alarm.UserID); err != nil {
			logger.L().Warn("Failed to set charge hint", zap.Error(err))
		}
		if err := queue.PublishPenaltyCharged(model.PenaltyChargedMessage{
			SweepID:       sweepID,
			ChargeDate:    occ.Date,
			ScheduledAt:   now.Format(time.RFC3339),
			UserID:        alarm.UserID,
			AlarmID:       alarm.ID,
			TransactionID: tx.ID,
			Amount:        tx.Amount,
			Currency:      tx.Currency,
		}); err != nil {
			logger.L().Warn("Failed to publish penalty charged event", zap.Error(err))
		}
	}

	metrics.GetMetrics().RecordCharge(ctx, "charged", tx.Currency, tx.Amount)
	logger.L().Info("Penalty charged",
		zap.String("sweep_id", sweepID),
		zap.Int64("user_id", alarm.UserID),
		zap.String("charge_date", occ.Date),
		zap.Int64("amount", tx.Amount),
		zap.String("intent_id", intent.ID),
	)
	return true, processed, nil
}

func (s *SettlementService) recordMissedAttempt(ctx context.Context, alarm *model.Alarm, occ deadline.Occurrence, now time.Time) (*model.WakeAttempt, error) {
	publicID, err := snowflake.NextID()
	if err != nil {
		return nil, err
	}
	reason := "deadline missed"
	attempt := &model.WakeAttempt{
		PublicID:      publicID,
		AlarmID:       alarm.ID,
		UserID:        alarm.UserID,
		Date:          occ.Date,
		Success:       false,
		FailureReason: &reason,
		AttemptedAt:   now,
	}
	if err := s.store.CreateWakeAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to record missed attempt: %w", err)
	}
	return attempt, nil
}

func (s *SettlementService) recordDeclinedTransaction(ctx context.Context, alarm *model.Alarm, occ deadline.Occurrence, attempt *model.WakeAttempt, idempotencyKey string, decline *payment.DeclineError) error {
	publicID, err := snowflake.NextID()
	if err != nil {
		return err
	}
	code := decline.Code
	tx := &model.PaymentTransaction{
		PublicID:      publicID,
		WakeAttemptID: attempt.ID,
		UserID:        alarm.UserID,
		ChargeDate:    occ.Date,
		Amount:        alarm.PenaltyAmount,
		Currency:      alarm.Currency,
		Status:        model.TransactionFailed,
		// No intent survives a decline; keep the row unique per charge key.
		ProcessorIntentID: "declined:" + idempotencyKey,
		FailureCode:       &code,
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil && !errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("failed to record declined transaction: %w", err)
	}

	metrics.GetMetrics().RecordCharge(ctx, "declined", alarm.Currency, alarm.PenaltyAmount)
	logger.L().Warn("Penalty charge declined",
		zap.Int64("user_id", alarm.UserID),
		zap.String("charge_date", occ.Date),
		zap.String("decline_code", decline.Code),
	)
	return nil
}

// LastResult reports the most recent sweep summary, nil before the first run.
func (s *SettlementService) LastResult() *dto.SweepResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// Running reports whether a sweep is currently executing.
func (s *SettlementService) Running() bool {
	return s.sweeping.Load()
}
