package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"WakeOrPay/internal/model"
	"WakeOrPay/internal/model/dto"
	"WakeOrPay/internal/store"
	pkgerrors "WakeOrPay/pkg/errors"
	"WakeOrPay/pkg/payment"
)

func verifyFixture(t *testing.T, at time.Time) (*VerificationService, *store.MemoryStore, *model.User) {
	t.Helper()
	testSetup(t)
	st := store.NewMemoryStore()
	u := seedUser(t, st, 1, "waker@example.com")
	seedAlarm(t, st, u.ID, "07:00:00")
	return NewVerificationService(st, fixedClock(at)), st, u
}

func TestVerifyWakeUpOnTime(t *testing.T) {
	at := time.Date(2026, 3, 2, 7, 15, 0, 0, time.UTC)
	svc, st, u := verifyFixture(t, at)

	resp, err := svc.VerifyWakeUp(context.Background(), u.ID, dto.VerifyWakeUpRequest{Method: "face"})
	if err != nil {
		t.Fatalf("VerifyWakeUp: %v", err)
	}
	if !resp.Verified || !resp.OnTime {
		t.Errorf("resp = verified %v on_time %v, want both true", resp.Verified, resp.OnTime)
	}
	if resp.Streak != 1 {
		t.Errorf("streak = %d, want 1", resp.Streak)
	}
	if resp.AlreadyCharged {
		t.Error("already_charged = true, want false")
	}

	rec, err := st.GetVerification(context.Background(), u.ID, "2026-03-02")
	if err != nil {
		t.Fatalf("GetVerification: %v", err)
	}
	if !rec.Verified || rec.VerifiedAt == nil || !rec.VerifiedAt.Equal(at) {
		t.Errorf("record = %+v, want verified at %v", rec, at)
	}
}

func TestVerifyWakeUpLateButInsideWindow(t *testing.T) {
	// 08:30 is past the 07:30 deadline but inside the 2h window.
	at := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	svc, _, u := verifyFixture(t, at)

	resp, err := svc.VerifyWakeUp(context.Background(), u.ID, dto.VerifyWakeUpRequest{Method: "face"})
	if err != nil {
		t.Fatalf("VerifyWakeUp: %v", err)
	}
	if !resp.Verified {
		t.Error("late verification inside window should still verify")
	}
	if resp.OnTime {
		t.Error("on_time = true, want false past the deadline")
	}
}

func TestVerifyWakeUpExpiredWindow(t *testing.T) {
	// 09:00:01 is past MaxVerifyBy (09:00).
	at := time.Date(2026, 3, 2, 9, 0, 1, 0, time.UTC)
	svc, st, u := verifyFixture(t, at)

	_, err := svc.VerifyWakeUp(context.Background(), u.ID, dto.VerifyWakeUpRequest{Method: "face"})
	if !errors.Is(err, pkgerrors.VerificationWindowExpired) {
		t.Fatalf("err = %v, want VerificationWindowExpired", err)
	}

	rec, err := st.GetVerification(context.Background(), u.ID, "2026-03-02")
	if err != nil {
		t.Fatalf("GetVerification: %v", err)
	}
	if rec.Verified {
		t.Error("record verified after expired attempt")
	}
	attempts, _ := st.ListWakeAttempts(context.Background(), u.ID, "2026-03-02")
	if len(attempts) != 1 || attempts[0].Success {
		t.Errorf("attempts = %+v, want one failed attempt", attempts)
	}
}

func TestVerifyWakeUpIdempotent(t *testing.T) {
	at := time.Date(2026, 3, 2, 7, 5, 0, 0, time.UTC)
	svc, st, u := verifyFixture(t, at)
	ctx := context.Background()

	first, err := svc.VerifyWakeUp(ctx, u.ID, dto.VerifyWakeUpRequest{Method: "face"})
	if err != nil {
		t.Fatalf("first verify: %v", err)
	}
	second, err := svc.VerifyWakeUp(ctx, u.ID, dto.VerifyWakeUpRequest{Method: "shake"})
	if err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if !second.Verified {
		t.Error("second verify should succeed")
	}
	if !first.VerifiedAt.Equal(*second.VerifiedAt) {
		t.Errorf("verified_at changed on replay: %v vs %v", first.VerifiedAt, second.VerifiedAt)
	}

	rec, _ := st.GetVerification(ctx, u.ID, "2026-03-02")
	if rec.VerificationMethod == nil || *rec.VerificationMethod != "face" {
		t.Errorf("method = %v, want the first attempt's face", rec.VerificationMethod)
	}
}

func TestVerifyWakeUpMethodRestriction(t *testing.T) {
	testSetup(t)
	st := store.NewMemoryStore()
	u := seedUser(t, st, 2, "shaker@example.com")
	alarm := &model.Alarm{
		PublicID: 20, UserID: u.ID, AlarmTime: "07:00:00", Timezone: "UTC",
		IsActive: true, PenaltyAmount: 500, Currency: "jpy",
		VerificationMethod: model.VerificationMethodShake,
	}
	if err := st.CreateAlarm(context.Background(), alarm); err != nil {
		t.Fatalf("seed alarm: %v", err)
	}
	svc := NewVerificationService(st, fixedClock(time.Date(2026, 3, 2, 7, 5, 0, 0, time.UTC)))

	tests := []struct {
		method  string
		wantErr error
	}{
		{method: "face", wantErr: pkgerrors.VerificationMethodInvalid},
		{method: "both", wantErr: pkgerrors.VerificationMethodInvalid},
		{method: "scream", wantErr: pkgerrors.VerificationMethodInvalid},
		{method: "shake", wantErr: nil},
	}
	for _, tt := range tests {
		_, err := svc.VerifyWakeUp(context.Background(), u.ID, dto.VerifyWakeUpRequest{Method: tt.method})
		if tt.wantErr == nil {
			if err != nil {
				t.Errorf("method %s: unexpected error %v", tt.method, err)
			}
			continue
		}
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("method %s: err = %v, want %v", tt.method, err, tt.wantErr)
		}
	}
}

func TestVerifyWakeUpNoActiveAlarm(t *testing.T) {
	testSetup(t)
	st := store.NewMemoryStore()
	u := seedUser(t, st, 3, "noalarm@example.com")
	svc := NewVerificationService(st, time.Now)

	_, err := svc.VerifyWakeUp(context.Background(), u.ID, dto.VerifyWakeUpRequest{Method: "face"})
	if !errors.Is(err, pkgerrors.AlarmNotFound) {
		t.Errorf("err = %v, want AlarmNotFound", err)
	}
}

func TestStreakAcrossDaysWithGap(t *testing.T) {
	testSetup(t)
	ctx := context.Background()
	st := store.NewMemoryStore()
	u := seedUser(t, st, 4, "streak@example.com")
	seedAlarm(t, st, u.ID, "07:00:00")

	// Verified Feb 27, 28, and March 1; Feb 25 verified but Feb 26 missed.
	seed := []struct {
		date     string
		verified bool
	}{
		{"2026-02-25", true},
		{"2026-02-26", false},
		{"2026-02-27", true},
		{"2026-02-28", true},
		{"2026-03-01", true},
	}
	for _, d := range seed {
		if _, err := st.GetOrCreateVerification(ctx, &model.VerificationRecord{
			UserID: u.ID, Date: d.date, AlarmTime: "07:00:00",
			VerificationDeadline: time.Now(),
		}); err != nil {
			t.Fatalf("seed %s: %v", d.date, err)
		}
		if d.verified {
			if _, err := st.MarkVerified(ctx, u.ID, d.date, time.Now(), "face"); err != nil {
				t.Fatalf("mark %s: %v", d.date, err)
			}
		}
	}

	at := time.Date(2026, 3, 2, 7, 10, 0, 0, time.UTC)
	svc := NewVerificationService(st, fixedClock(at))
	resp, err := svc.VerifyWakeUp(ctx, u.ID, dto.VerifyWakeUpRequest{Method: "face"})
	if err != nil {
		t.Fatalf("VerifyWakeUp: %v", err)
	}
	// Feb 27 through March 2 inclusive; the Feb 26 gap stops the count.
	if resp.Streak != 4 {
		t.Errorf("streak = %d, want 4", resp.Streak)
	}
}

func TestBadgeAwardedAtThreshold(t *testing.T) {
	testSetup(t)
	ctx := context.Background()
	st := store.NewMemoryStore()
	u := seedUser(t, st, 5, "badge@example.com")
	seedAlarm(t, st, u.ID, "07:00:00")

	for _, date := range []string{"2026-02-28", "2026-03-01"} {
		if _, err := st.GetOrCreateVerification(ctx, &model.VerificationRecord{
			UserID: u.ID, Date: date, AlarmTime: "07:00:00", VerificationDeadline: time.Now(),
		}); err != nil {
			t.Fatalf("seed %s: %v", date, err)
		}
		if _, err := st.MarkVerified(ctx, u.ID, date, time.Now(), "face"); err != nil {
			t.Fatalf("mark %s: %v", date, err)
		}
	}

	at := time.Date(2026, 3, 2, 7, 10, 0, 0, time.UTC)
	svc := NewVerificationService(st, fixedClock(at))
	resp, err := svc.VerifyWakeUp(ctx, u.ID, dto.VerifyWakeUpRequest{Method: "face"})
	if err != nil {
		t.Fatalf("VerifyWakeUp: %v", err)
	}
	if resp.Streak != 3 {
		t.Fatalf("streak = %d, want 3", resp.Streak)
	}
	if len(resp.BadgesAwarded) != 1 || resp.BadgesAwarded[0] != "early_riser_bronze" {
		t.Errorf("badges = %v, want [early_riser_bronze]", resp.BadgesAwarded)
	}

	// Replay does not re-award.
	resp, err = svc.VerifyWakeUp(ctx, u.ID, dto.VerifyWakeUpRequest{Method: "face"})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(resp.BadgesAwarded) != 0 {
		t.Errorf("replay badges = %v, want none", resp.BadgesAwarded)
	}
}

func TestVerifyAfterChargeFlagsReconciliation(t *testing.T) {
	// Sweep at 08:00 charges; the user verifies at 08:30, still inside the
	// 2h window. The verification lands but reports the charge.
	testSetup(t)
	ctx := context.Background()
	st := store.NewMemoryStore()
	mock := payment.NewMockClient()

	u := seedUser(t, st, 6, "late@example.com")
	seedAlarm(t, st, u.ID, "07:00:00")

	sweep := NewSettlementService(st, mock, fixedClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)))
	if _, err := sweep.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	verify := NewVerificationService(st, fixedClock(time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)))
	resp, err := verify.VerifyWakeUp(ctx, u.ID, dto.VerifyWakeUpRequest{Method: "face"})
	if err != nil {
		t.Fatalf("VerifyWakeUp: %v", err)
	}
	if !resp.Verified {
		t.Error("verification should still land inside the window")
	}
	if !resp.AlreadyCharged {
		t.Error("already_charged = false, want true after the sweep charged")
	}
	if resp.OnTime {
		t.Error("on_time = true, want false")
	}
}

func TestTodayStatus(t *testing.T) {
	at := time.Date(2026, 3, 2, 7, 20, 0, 0, time.UTC)
	svc, _, u := verifyFixture(t, at)
	ctx := context.Background()

	status, err := svc.TodayStatus(ctx, u.ID)
	if err != nil {
		t.Fatalf("TodayStatus: %v", err)
	}
	if status.Date != "2026-03-02" {
		t.Errorf("date = %s, want 2026-03-02", status.Date)
	}
	if status.Verified || status.Charged {
		t.Errorf("fresh day: verified=%v charged=%v, want false/false", status.Verified, status.Charged)
	}
	if status.SecondsToDeadline != 600 {
		t.Errorf("seconds_to_deadline = %d, want 600", status.SecondsToDeadline)
	}

	if _, err := svc.VerifyWakeUp(ctx, u.ID, dto.VerifyWakeUpRequest{Method: "face"}); err != nil {
		t.Fatalf("VerifyWakeUp: %v", err)
	}
	status, err = svc.TodayStatus(ctx, u.ID)
	if err != nil {
		t.Fatalf("TodayStatus after verify: %v", err)
	}
	if !status.Verified {
		t.Error("verified = false after verification")
	}
}
