package service

import (
	"context"
	"errors"
	"testing"

	"WakeOrPay/internal/model"
	"WakeOrPay/internal/store"
	pkgerrors "WakeOrPay/pkg/errors"
	"WakeOrPay/pkg/payment"
)

func seedTransaction(t *testing.T, st *store.MemoryStore, userID int64, intentID string) *model.PaymentTransaction {
	t.Helper()
	tx := &model.PaymentTransaction{
		PublicID: 100, WakeAttemptID: 1, UserID: userID, ChargeDate: "2026-03-02",
		Amount: 500, Currency: "jpy", Status: model.TransactionPending,
		ProcessorIntentID: intentID,
	}
	if err := st.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return tx
}

func TestSetupIntentReusesCustomer(t *testing.T) {
	testSetup(t)
	ctx := context.Background()
	st := store.NewMemoryStore()
	mock := payment.NewMockClient()
	u := seedUser(t, st, 1, "payer@example.com")
	svc := NewPaymentService(st, mock)

	first, err := svc.CreateSetupIntent(ctx, u.ID)
	if err != nil {
		t.Fatalf("first setup intent: %v", err)
	}
	if first.ClientSecret == "" || first.CustomerID == "" {
		t.Fatalf("incomplete response: %+v", first)
	}

	second, err := svc.CreateSetupIntent(ctx, u.ID)
	if err != nil {
		t.Fatalf("second setup intent: %v", err)
	}
	if second.CustomerID != first.CustomerID {
		t.Errorf("customer changed between setups: %s vs %s", first.CustomerID, second.CustomerID)
	}

	stored, err := st.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if stored.StripeCustomerID == nil || *stored.StripeCustomerID != first.CustomerID {
		t.Errorf("customer id not persisted: %v", stored.StripeCustomerID)
	}
}

func TestApplyWebhookUpdatesStatus(t *testing.T) {
	testSetup(t)
	ctx := context.Background()
	st := store.NewMemoryStore()
	mock := payment.NewMockClient()
	svc := NewPaymentService(st, mock)
	seedTransaction(t, st, 1, "pi_hook")

	tests := []struct {
		event      string
		wantStatus model.TransactionStatus
	}{
		{event: "payment_intent.succeeded", wantStatus: model.TransactionSucceeded},
		{event: "payment_intent.payment_failed", wantStatus: model.TransactionFailed},
		{event: "payment_intent.canceled", wantStatus: model.TransactionCanceled},
	}
	for _, tt := range tests {
		payload := []byte(tt.event + ":pi_hook")
		if err := svc.ApplyWebhook(ctx, payload, "sig"); err != nil {
			t.Fatalf("%s: %v", tt.event, err)
		}
		tx, err := st.GetTransactionByIntentID(ctx, "pi_hook")
		if err != nil {
			t.Fatalf("lookup: %v", err)
		}
		if tx.Status != tt.wantStatus {
			t.Errorf("%s: status = %s, want %s", tt.event, tx.Status, tt.wantStatus)
		}
	}
}

func TestApplyWebhookIgnoresUnknownEventsAndIntents(t *testing.T) {
	testSetup(t)
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewPaymentService(st, payment.NewMockClient())
	tx := seedTransaction(t, st, 1, "pi_keep")

	// Unknown event type: acknowledged, no change.
	if err := svc.ApplyWebhook(ctx, []byte("charge.refunded:pi_keep"), "sig"); err != nil {
		t.Fatalf("unknown event: %v", err)
	}
	// Unknown intent: acknowledged, no change.
	if err := svc.ApplyWebhook(ctx, []byte("payment_intent.succeeded:pi_missing"), "sig"); err != nil {
		t.Fatalf("unknown intent: %v", err)
	}

	got, err := st.GetTransactionByIntentID(ctx, tx.ProcessorIntentID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Status != model.TransactionPending {
		t.Errorf("status = %s, want untouched pending", got.Status)
	}
}

func TestApplyWebhookBadPayload(t *testing.T) {
	testSetup(t)
	svc := NewPaymentService(store.NewMemoryStore(), payment.NewMockClient())

	err := svc.ApplyWebhook(context.Background(), []byte("garbage"), "sig")
	if !errors.Is(err, pkgerrors.WebhookSignatureFailed) {
		t.Errorf("err = %v, want WebhookSignatureFailed", err)
	}
}

func TestListTransactionsTotals(t *testing.T) {
	testSetup(t)
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewPaymentService(st, payment.NewMockClient())

	rows := []struct {
		date   string
		status model.TransactionStatus
	}{
		{"2026-03-01", model.TransactionSucceeded},
		{"2026-03-02", model.TransactionPending},
		{"2026-03-03", model.TransactionFailed},
	}
	for i, r := range rows {
		tx := &model.PaymentTransaction{
			PublicID: int64(200 + i), WakeAttemptID: int64(10 + i), UserID: 1,
			ChargeDate: r.date, Amount: 500, Currency: "jpy", Status: r.status,
			ProcessorIntentID: "pi_list_" + r.date,
		}
		if err := st.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("seed %s: %v", r.date, err)
		}
	}

	resp, err := svc.ListTransactions(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(resp.Transactions) != 3 {
		t.Fatalf("transactions = %d, want 3", len(resp.Transactions))
	}
	// Failed charges never collected money.
	if resp.TotalCharged != 1000 {
		t.Errorf("total charged = %d, want 1000", resp.TotalCharged)
	}
}
