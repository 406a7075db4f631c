package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"WakeOrPay/internal/model"
)

func newTestUser(t *testing.T, s *MemoryStore, publicID int64, email string) *model.User {
	t.Helper()
	u := &model.User{PublicID: publicID, Email: email, Timezone: "Asia/Tokyo"}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestSingleActiveAlarmPerUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := newTestUser(t, s, 1001, "a@example.com")

	first := &model.Alarm{PublicID: 1, UserID: u.ID, AlarmTime: "07:00:00", Timezone: "Asia/Tokyo", IsActive: true, PenaltyAmount: 500, Currency: "jpy", VerificationMethod: model.VerificationMethodFace}
	if err := s.CreateAlarm(ctx, first); err != nil {
		t.Fatalf("create first alarm: %v", err)
	}
	second := &model.Alarm{PublicID: 2, UserID: u.ID, AlarmTime: "06:30:00", Timezone: "Asia/Tokyo", IsActive: true, PenaltyAmount: 500, Currency: "jpy", VerificationMethod: model.VerificationMethodFace}
	if err := s.CreateAlarm(ctx, second); err != nil {
		t.Fatalf("create second alarm: %v", err)
	}

	active, err := s.GetActiveAlarm(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetActiveAlarm: %v", err)
	}
	if active.PublicID != 2 {
		t.Errorf("active alarm = %d, want 2", active.PublicID)
	}
	alarms, err := s.ListAlarms(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListAlarms: %v", err)
	}
	activeCount := 0
	for _, a := range alarms {
		if a.IsActive {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Errorf("active alarms = %d, want 1", activeCount)
	}

	if err := s.ActivateAlarm(ctx, u.ID, first.ID); err != nil {
		t.Fatalf("ActivateAlarm: %v", err)
	}
	active, err = s.GetActiveAlarm(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetActiveAlarm after switch: %v", err)
	}
	if active.PublicID != 1 {
		t.Errorf("active alarm after switch = %d, want 1", active.PublicID)
	}
}

func TestGetOrCreateVerificationConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	deadline := time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)

	const goroutines = 16
	rows := make([]*model.VerificationRecord, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := s.GetOrCreateVerification(ctx, &model.VerificationRecord{
				UserID:               42,
				Date:                 "2026-03-02",
				AlarmTime:            "07:00:00",
				VerificationDeadline: deadline,
			})
			if err != nil {
				t.Errorf("GetOrCreateVerification: %v", err)
				return
			}
			rows[i] = rec
		}(i)
	}
	wg.Wait()

	for i, rec := range rows {
		if rec == nil {
			t.Fatalf("goroutine %d got nil record", i)
		}
		if rec.ID != rows[0].ID {
			t.Errorf("goroutine %d got row %d, want %d", i, rec.ID, rows[0].ID)
		}
	}
}

func TestMarkVerifiedIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.GetOrCreateVerification(ctx, &model.VerificationRecord{
		UserID: 7, Date: "2026-03-02", AlarmTime: "07:00:00",
		VerificationDeadline: time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("GetOrCreateVerification: %v", err)
	}

	firstAt := time.Date(2026, 3, 2, 7, 10, 0, 0, time.UTC)
	ok, err := s.MarkVerified(ctx, 7, "2026-03-02", firstAt, "face")
	if err != nil || !ok {
		t.Fatalf("first MarkVerified = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = s.MarkVerified(ctx, 7, "2026-03-02", firstAt.Add(time.Minute), "shake")
	if err != nil {
		t.Fatalf("second MarkVerified: %v", err)
	}
	if ok {
		t.Error("second MarkVerified reported a flip, want no-op")
	}

	rec, err := s.GetVerification(ctx, 7, "2026-03-02")
	if err != nil {
		t.Fatalf("GetVerification: %v", err)
	}
	if rec.VerifiedAt == nil || !rec.VerifiedAt.Equal(firstAt) {
		t.Errorf("VerifiedAt = %v, want %v", rec.VerifiedAt, firstAt)
	}
	if rec.VerificationMethod == nil || *rec.VerificationMethod != "face" {
		t.Errorf("VerificationMethod = %v, want face", rec.VerificationMethod)
	}
}

func TestTransactionUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := model.PaymentTransaction{
		PublicID: 1, WakeAttemptID: 10, UserID: 7, ChargeDate: "2026-03-02",
		Amount: 500, Currency: "jpy", Status: model.TransactionPending,
		ProcessorIntentID: "pi_first",
	}
	tx := base
	if err := s.CreateTransaction(ctx, &tx); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	dupes := []model.PaymentTransaction{
		{PublicID: 2, WakeAttemptID: 10, UserID: 8, ChargeDate: "2026-03-03", Amount: 500, Currency: "jpy", ProcessorIntentID: "pi_a"},
		{PublicID: 3, WakeAttemptID: 11, UserID: 7, ChargeDate: "2026-03-02", Amount: 500, Currency: "jpy", ProcessorIntentID: "pi_b"},
		{PublicID: 4, WakeAttemptID: 12, UserID: 9, ChargeDate: "2026-03-04", Amount: 500, Currency: "jpy", ProcessorIntentID: "pi_first"},
	}
	for i := range dupes {
		d := dupes[i]
		if err := s.CreateTransaction(ctx, &d); !errors.Is(err, ErrDuplicate) {
			t.Errorf("dupe %d: err = %v, want ErrDuplicate", i, err)
		}
	}

	got, err := s.GetTransactionByIntentID(ctx, "pi_first")
	if err != nil {
		t.Fatalf("GetTransactionByIntentID: %v", err)
	}
	if got.UserID != 7 {
		t.Errorf("UserID = %d, want 7", got.UserID)
	}
}

func TestUpdateTransactionStatus(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tx := &model.PaymentTransaction{
		PublicID: 1, WakeAttemptID: 1, UserID: 1, ChargeDate: "2026-03-02",
		Amount: 500, Currency: "jpy", Status: model.TransactionPending,
		ProcessorIntentID: "pi_x",
	}
	if err := s.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	code := "card_declined"
	if err := s.UpdateTransactionStatus(ctx, "pi_x", model.TransactionFailed, &code); err != nil {
		t.Fatalf("UpdateTransactionStatus: %v", err)
	}
	got, err := s.GetTransactionByIntentID(ctx, "pi_x")
	if err != nil {
		t.Fatalf("GetTransactionByIntentID: %v", err)
	}
	if got.Status != model.TransactionFailed {
		t.Errorf("Status = %s, want failed", got.Status)
	}
	if got.FailureCode == nil || *got.FailureCode != "card_declined" {
		t.Errorf("FailureCode = %v, want card_declined", got.FailureCode)
	}

	if err := s.UpdateTransactionStatus(ctx, "pi_missing", model.TransactionSucceeded, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing intent: err = %v, want ErrNotFound", err)
	}
}
