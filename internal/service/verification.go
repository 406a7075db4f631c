package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"WakeOrPay/internal/deadline"
	"WakeOrPay/internal/model"
	"WakeOrPay/internal/model/dto"
	"WakeOrPay/internal/queue"
	"WakeOrPay/internal/store"
	pkgerrors "WakeOrPay/pkg/errors"
	"WakeOrPay/pkg/logger"
	"WakeOrPay/pkg/metrics"
	"WakeOrPay/pkg/snowflake"
)

// Streak badges, awarded when the consecutive-day count first reaches the
// threshold.
var streakBadges = []struct {
	Days  int
	Badge string
}{
	{3, "early_riser_bronze"},
	{7, "early_riser_week"},
	{30, "early_riser_month"},
}

const historyWindow = 60

// VerificationService handles live wake-up proofs.
type VerificationService struct {
	store store.Store
	now   func() time.Time
}

var (
	verificationService *VerificationService
	verificationOnce    sync.Once
)

func Verification() *VerificationService {
	verificationOnce.Do(func() {
		verificationService = NewVerificationService(defaultStore(), time.Now)
	})
	return verificationService
}

func NewVerificationService(st store.Store, now func() time.Time) *VerificationService {
	return &VerificationService{store: st, now: now}
}

// VerifyWakeUp records a verification attempt against the user's active
// alarm. Attempts after the maximum window are rejected; attempts after the
// deadline but inside the window still verify, they are just not on time and
// may land after the sweep already charged.
func (s *VerificationService) VerifyWakeUp(ctx context.Context, userID int64, req dto.VerifyWakeUpRequest) (*dto.VerifyWakeUpResponse, error) {
	alarm, err := s.store.GetActiveAlarm(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.AlarmNotFound
		}
		return nil, fmt.Errorf("failed to load active alarm: %w", err)
	}

	method := model.VerificationMethod(req.Method)
	if method != model.VerificationMethodFace && method != model.VerificationMethodShake {
		return nil, pkgerrors.VerificationMethodInvalid
	}
	if alarm.VerificationMethod != model.VerificationMethodBoth && alarm.VerificationMethod != method {
		return nil, pkgerrors.VerificationMethodInvalid
	}

	loc, err := time.LoadLocation(alarm.Timezone)
	if err != nil {
		loc = time.UTC
	}

	now := s.now()
	attemptedAt := s.resolveAttemptTime(req.CapturedAt, now)

	occ, err := deadline.Today(alarm.AlarmTime, now, loc, graceWindow(), maxVerifyWindow())
	if err != nil {
		return nil, fmt.Errorf("failed to compute occurrence: %w", err)
	}

	if _, err := s.store.GetOrCreateVerification(ctx, &model.VerificationRecord{
		UserID:               userID,
		Date:                 occ.Date,
		AlarmTime:            alarm.AlarmTime,
		VerificationDeadline: occ.Deadline,
	}); err != nil {
		return nil, err
	}

	if !occ.Acceptable(attemptedAt) {
		if err := s.recordAttempt(ctx, alarm, occ.Date, false, string(method), "window expired", attemptedAt); err != nil {
			logger.L().Warn("Failed to record expired attempt", zap.Error(err))
		}
		metrics.GetMetrics().RecordVerification(ctx, "expired", string(method))
		return nil, pkgerrors.VerificationWindowExpired
	}

	if err := s.recordAttempt(ctx, alarm, occ.Date, true, string(method), "", attemptedAt); err != nil {
		return nil, err
	}
	metrics.GetMetrics().RecordVerification(ctx, "verified", string(method))

	flipped, err := s.store.MarkVerified(ctx, userID, occ.Date, attemptedAt, string(method))
	if err != nil {
		return nil, err
	}

	rec, err := s.store.GetVerification(ctx, userID, occ.Date)
	if err != nil {
		return nil, err
	}

	charged := false
	if tx, err := s.store.GetTransactionByUserDate(ctx, userID, occ.Date); err == nil {
		charged = tx.Status != model.TransactionCanceled
		if flipped && charged {
			logger.L().Warn("User verified after penalty charge",
				zap.Int64("user_id", userID),
				zap.String("date", occ.Date),
				zap.Time("verified_at", attemptedAt),
			)
			if externalInfra() {
				if pubErr := queue.PublishReconciliation(model.ReconciliationMessage{
					ChargeDate:    occ.Date,
					VerifiedAt:    attemptedAt.Format(time.RFC3339),
					UserID:        userID,
					TransactionID: tx.ID,
					Reason:        "verified after charge",
				}); pubErr != nil {
					logger.L().Warn("Failed to publish reconciliation event", zap.Error(pubErr))
				}
			}
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	streak, err := s.streak(ctx, userID, occ.Date, loc)
	if err != nil {
		logger.L().Warn("Failed to compute streak", zap.Int64("user_id", userID), zap.Error(err))
		streak = 0
	}

	var badges []string
	if flipped {
		for _, b := range streakBadges {
			if streak == b.Days {
				badges = append(badges, b.Badge)
			}
		}
	}

	return &dto.VerifyWakeUpResponse{
		Verified:       true,
		OnTime:         occ.OnTime(attemptedAt),
		VerifiedAt:     rec.VerifiedAt,
		Date:           occ.Date,
		Streak:         streak,
		BadgesAwarded:  badges,
		AlreadyCharged: charged,
	}, nil
}

// resolveAttemptTime prefers the client capture time when it is parseable
// and not in the future; the server clock wins otherwise.
func (s *VerificationService) resolveAttemptTime(capturedAt string, now time.Time) time.Time {
	if capturedAt == "" {
		return now
	}
	t, err := time.Parse(time.RFC3339, capturedAt)
	if err != nil || t.After(now) {
		return now
	}
	return t
}

func (s *VerificationService) recordAttempt(ctx context.Context, alarm *model.Alarm, date string, success bool, method, failureReason string, at time.Time) error {
	publicID, err := snowflake.NextID()
	if err != nil {
		return err
	}
	attempt := &model.WakeAttempt{
		PublicID:           publicID,
		AlarmID:            alarm.ID,
		UserID:             alarm.UserID,
		Date:               date,
		Success:            success,
		VerificationMethod: &method,
		AttemptedAt:        at,
	}
	if failureReason != "" {
		attempt.FailureReason = &failureReason
	}
	return s.store.CreateWakeAttempt(ctx, attempt)
}

// streak counts consecutive verified days ending at date.
func (s *VerificationService) streak(ctx context.Context, userID int64, date string, loc *time.Location) (int, error) {
	recs, err := s.store.ListRecentVerifications(ctx, userID, historyWindow)
	if err != nil {
		return 0, err
	}

	verified := make(map[string]bool, len(recs))
	for _, r := range recs {
		if r.Verified {
			verified[r.Date] = true
		}
	}

	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return 0, err
	}

	streak := 0
	for {
		key := day.Format("2006-01-02")
		if !verified[key] {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}

// TodayStatus reports the current occurrence of the user's active alarm.
func (s *VerificationService) TodayStatus(ctx context.Context, userID int64) (*dto.TodayStatusData, error) {
	alarm, err := s.store.GetActiveAlarm(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.AlarmNotFound
		}
		return nil, err
	}

	loc, err := time.LoadLocation(alarm.Timezone)
	if err != nil {
		loc = time.UTC
	}
	now := s.now()
	occ, err := deadline.Today(alarm.AlarmTime, now, loc, graceWindow(), maxVerifyWindow())
	if err != nil {
		return nil, err
	}

	status := &dto.TodayStatusData{
		Date:              occ.Date,
		AlarmID:           fmt.Sprintf("%d", alarm.PublicID),
		AlarmTime:         alarm.AlarmTime,
		Deadline:          occ.Deadline,
		MaxVerifyBy:       occ.MaxVerifyBy,
		PenaltyAmount:     alarm.PenaltyAmount,
		Currency:          alarm.Currency,
		SecondsToDeadline: int64(occ.Deadline.Sub(now).Seconds()),
	}

	if rec, err := s.store.GetVerification(ctx, userID, occ.Date); err == nil {
		status.Verified = rec.Verified
		status.VerifiedAt = rec.VerifiedAt
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if _, err := s.store.GetTransactionByUserDate(ctx, userID, occ.Date); err == nil {
		status.Charged = true
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	return status, nil
}

// History returns recent verification days with charge info and the streak.
func (s *VerificationService) History(ctx context.Context, userID int64, limit int) (*dto.WakeHistoryResponse, error) {
	if limit <= 0 || limit > historyWindow {
		limit = 30
	}

	recs, err := s.store.ListRecentVerifications(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date > recs[j].Date })

	resp := &dto.WakeHistoryResponse{Days: make([]dto.WakeHistoryItem, 0, len(recs))}
	for _, rec := range recs {
		item := dto.WakeHistoryItem{
			Date:       rec.Date,
			Verified:   rec.Verified,
			VerifiedAt: rec.VerifiedAt,
			Method:     rec.VerificationMethod,
		}
		if tx, err := s.store.GetTransactionByUserDate(ctx, userID, rec.Date); err == nil {
			item.Charged = true
			item.Amount = tx.Amount
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		resp.Days = append(resp.Days, item)
	}

	if len(recs) > 0 {
		loc := time.UTC
		if u, err := s.store.GetUserByID(ctx, userID); err == nil {
			if l, err := time.LoadLocation(u.Timezone); err == nil {
				loc = l
			}
		}
		streak, err := s.streak(ctx, userID, recs[0].Date, loc)
		if err == nil {
			resp.Streak = streak
		}
	}
	return resp, nil
}
