package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"WakeOrPay/config"
	"WakeOrPay/internal/model"
	"WakeOrPay/internal/store"
	"WakeOrPay/pkg/payment"
	"WakeOrPay/pkg/snowflake"
)

func testSetup(t *testing.T) {
	t.Helper()
	config.Cfg = config.Config{
		StorageDriver:    "memory",
		GraceMinutes:     30,
		MaxVerifyMinutes: 120,
		PenaltyCurrency:  "jpy",
		DefaultPenalty:   100,
	}
	if err := snowflake.Init(1, 1); err != nil {
		t.Fatalf("snowflake.Init: %v", err)
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func seedAlarm(t *testing.T, st *store.MemoryStore, userID int64, alarmTime string) *model.Alarm {
	t.Helper()
	alarm := &model.Alarm{
		PublicID:           userID * 10,
		UserID:             userID,
		AlarmTime:          alarmTime,
		Timezone:           "UTC",
		IsActive:           true,
		PenaltyAmount:      500,
		Currency:           "jpy",
		VerificationMethod: model.VerificationMethodFace,
	}
	if err := st.CreateAlarm(context.Background(), alarm); err != nil {
		t.Fatalf("seed alarm: %v", err)
	}
	return alarm
}

func seedUser(t *testing.T, st *store.MemoryStore, publicID int64, email string) *model.User {
	t.Helper()
	u := &model.User{PublicID: publicID, Email: email, Timezone: "UTC"}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestSweepChargesMissedAlarm(t *testing.T) {
	testSetup(t)
	ctx := context.Background()
	st := store.NewMemoryStore()
	mock := payment.NewMockClient()

	u := seedUser(t, st, 1, "miss@example.com")
	alarm := seedAlarm(t, st, u.ID, "07:00:00")

	// 08:00 is past the 07:30 deadline.
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc := NewSettlementService(st, mock, fixedClock(now))

	result, err := svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.Charged != 1 || result.Processed != 1 || result.Errors != 0 {
		t.Fatalf("result = %+v, want charged=1 processed=1 errors=0", result)
	}

	tx, err := st.GetTransactionByUserDate(ctx, u.ID, "2026-03-02")
	if err != nil {
		t.Fatalf("transaction lookup: %v", err)
	}
	if tx.Amount != 500 || tx.Status != model.TransactionPending {
		t.Errorf("tx = amount %d status %s, want 500 pending", tx.Amount, tx.Status)
	}
	if tx.WakeAttemptID == 0 {
		t.Error("transaction not linked to a wake attempt")
	}

	attempts, err := st.ListWakeAttempts(ctx, u.ID, "2026-03-02")
	if err != nil {
		t.Fatalf("ListWakeAttempts: %v", err)
	}
	if len(attempts) != 1 || attempts[0].Success {
		t.Errorf("attempts = %d, want one failed attempt", len(attempts))
	}
	_ = alarm
}

func TestSweepIsIdempotent(t *testing.T) {
	testSetup(t)
	ctx := context.Background()
	st := store.NewMemoryStore()
	mock := payment.NewMockClient()

	u := seedUser(t, st, 2, "repeat@example.com")
	seedAlarm(t, st, u.ID, "07:00:00")

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc := NewSettlementService(st, mock, fixedClock(now))

	for i := 0; i < 5; i++ {
		if _, err := svc.Sweep(ctx); err != nil {
			t.Fatalf("sweep %d: %v", i, err)
		}
	}

	if mock.ChargeCount() != 1 {
		t.Errorf("processor charges = %d, want 1", mock.ChargeCount())
	}
	attempts, _ := st.ListWakeAttempts(ctx, u.ID, "2026-03-02")
	if len(attempts) != 1 {
		t.Errorf("wake attempts = %d, want 1", len(attempts))
	}
}

func TestSweepSkipsBeforeDeadline(t *testing.T) {
	testSetup(t)
	ctx := context.Background()
	st := store.NewMemoryStore()
	mock := payment.NewMockClient()

	u := seedUser(t, st, 3, "early@example.com")
	seedAlarm(t, st, u.ID, "07:00:00")

	// Exactly at the deadline: not yet due.
	now := time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)
	svc := NewSettlementService(st, mock, fixedClock(now))

	result, err := svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.Charged != 0 || result.Skipped != 1 {
		t.Errorf("result = %+v, want charged=0 skipped=1", result)
	}
	if mock.ChargeCount() != 0 {
		t.Errorf("processor charges = %d, want 0", mock.ChargeCount())
	}
}

func TestSweepSkipsVerifiedUser(t *testing.T) {
	testSetup(t)
	ctx := context.Background()
	st := store.NewMemoryStore()
	mock := payment.NewMockClient()

	u := seedUser(t, st, 4, "awake@example.com")
	seedAlarm(t, st, u.ID, "07:00:00")

	// Verified inside the window.
	verifiedAt := time.Date(2026, 3, 2, 7, 10, 0, 0, time.UTC)
	if _, err := st.GetOrCreateVerification(ctx, &model.VerificationRecord{
		UserID: u.ID, Date: "2026-03-02", AlarmTime: "07:00:00",
		VerificationDeadline: time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("seed verification: %v", err)
	}
	if _, err := st.MarkVerified(ctx, u.ID, "2026-03-02", verifiedAt, "face"); err != nil {
		t.Fatalf("mark verified: %v", err)
	}

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc := NewSettlementService(st, mock, fixedClock(now))

	result, err := svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.Charged != 0 {
		t.Errorf("charged = %d, want 0", result.Charged)
	}
	// A verified occurrence was still evaluated past its deadline.
	if result.Processed != 1 || result.Skipped != 0 {
		t.Errorf("result = %+v, want processed=1 skipped=0", result)
	}
	if mock.ChargeCount() != 0 {
		t.Errorf("processor charges = %d, want 0", mock.ChargeCount())
	}
}

// flakyClient fails one CreatePaymentIntent call by position and delegates
// everything else to the mock.
type flakyClient struct {
	*payment.MockClient
	calls      int
	failAtCall int
}

func (f *flakyClient) CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string, idempotencyKey string) (*payment.Intent, error) {
	f.calls++
	if f.calls == f.failAtCall {
		return nil, errors.New("processor unreachable")
	}
	return f.MockClient.CreatePaymentIntent(ctx, amount, currency, metadata, idempotencyKey)
}

func TestSweepCountsFailedChargeAsProcessed(t *testing.T) {
	testSetup(t)
	ctx := context.Background()
	st := store.NewMemoryStore()
	flaky := &flakyClient{MockClient: payment.NewMockClient(), failAtCall: 2}

	for i := int64(1); i <= 3; i++ {
		u := seedUser(t, st, 20+i, fmt.Sprintf("due%d@example.com", i))
		seedAlarm(t, st, u.ID, "07:00:00")
	}

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc := NewSettlementService(st, flaky, fixedClock(now))

	result, err := svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	// All three occurrences were due and evaluated; the one whose charge call
	// threw still counts as processed.
	if result.Processed != 3 || result.Errors != 1 {
		t.Fatalf("result = %+v, want processed=3 errors=1", result)
	}
	if result.Charged != 2 {
		t.Errorf("charged = %d, want 2", result.Charged)
	}
	if result.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", result.Skipped)
	}
}

func TestSweepIsolatesPerAlarmFailures(t *testing.T) {
	testSetup(t)
	ctx := context.Background()
	st := store.NewMemoryStore()
	mock := payment.NewMockClient()

	for i := int64(1); i <= 3; i++ {
		u := seedUser(t, st, 10+i, fmt.Sprintf("ok%d@example.com", i))
		seedAlarm(t, st, u.ID, "07:00:00")
	}
	// Unparseable alarm time poisons only its own alarm.
	bad := seedUser(t, st, 99, "bad@example.com")
	badAlarm := &model.Alarm{
		PublicID: 990, UserID: bad.ID, AlarmTime: "not-a-time", Timezone: "UTC",
		IsActive: true, PenaltyAmount: 500, Currency: "jpy",
		VerificationMethod: model.VerificationMethodFace,
	}
	if err := st.CreateAlarm(ctx, badAlarm); err != nil {
		t.Fatalf("seed bad alarm: %v", err)
	}

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc := NewSettlementService(st, mock, fixedClock(now))

	result, err := svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.Charged != 3 {
		t.Errorf("charged = %d, want 3", result.Charged)
	}
	if result.Errors != 1 {
		t.Errorf("errors = %d, want 1", result.Errors)
	}
	// Due-ness of the poisoned alarm is unknowable, so it stays unprocessed.
	if result.Processed != 3 {
		t.Errorf("processed = %d, want 3", result.Processed)
	}
	if result.TotalAlarms != 4 {
		t.Errorf("total alarms = %d, want 4", result.TotalAlarms)
	}
}

func TestSweepRecordsDeclineAsFailedTransaction(t *testing.T) {
	testSetup(t)
	ctx := context.Background()
	st := store.NewMemoryStore()
	mock := payment.NewMockClient()
	mock.DeclineNext = true

	u := seedUser(t, st, 5, "declined@example.com")
	seedAlarm(t, st, u.ID, "07:00:00")

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc := NewSettlementService(st, mock, fixedClock(now))

	result, err := svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.Errors != 0 {
		t.Errorf("errors = %d, want 0: a decline is an outcome, not a failure", result.Errors)
	}
	if result.Charged != 0 {
		t.Errorf("charged = %d, want 0", result.Charged)
	}

	tx, err := st.GetTransactionByUserDate(ctx, u.ID, "2026-03-02")
	if err != nil {
		t.Fatalf("transaction lookup: %v", err)
	}
	if tx.Status != model.TransactionFailed {
		t.Errorf("status = %s, want failed", tx.Status)
	}
	if tx.FailureCode == nil || *tx.FailureCode != "card_declined" {
		t.Errorf("failure code = %v, want card_declined", tx.FailureCode)
	}

	// A later sweep retries nothing: the failed transaction resolves the day.
	if _, err := svc.Sweep(ctx); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if mock.ChargeCount() != 0 {
		t.Errorf("processor charges = %d, want 0", mock.ChargeCount())
	}
}

func TestSweepRejectsConcurrentRun(t *testing.T) {
	testSetup(t)
	st := store.NewMemoryStore()
	mock := payment.NewMockClient()
	svc := NewSettlementService(st, mock, time.Now)

	svc.sweeping.Store(true)
	if _, err := svc.Sweep(context.Background()); !errors.Is(err, ErrSweepInProgress) {
		t.Errorf("err = %v, want ErrSweepInProgress", err)
	}
	svc.sweeping.Store(false)
}
