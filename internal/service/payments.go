package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"WakeOrPay/internal/model"
	"WakeOrPay/internal/model/dto"
	"WakeOrPay/internal/queue"
	"WakeOrPay/internal/store"
	pkgerrors "WakeOrPay/pkg/errors"
	"WakeOrPay/pkg/logger"
	"WakeOrPay/pkg/payment"
)

// PaymentService owns the processor-facing flows: setup intents for payment
// method collection and webhook application.
type PaymentService struct {
	store    store.Store
	payments payment.Client
}

var (
	paymentService *PaymentService
	paymentOnce    sync.Once
)

func Payments() *PaymentService {
	paymentOnce.Do(func() {
		paymentService = NewPaymentService(defaultStore(), payment.GetClient())
	})
	return paymentService
}

func NewPaymentService(st store.Store, pc payment.Client) *PaymentService {
	return &PaymentService{store: st, payments: pc}
}

// CreateSetupIntent prepares payment-method collection, registering the user
// as a processor customer on first use.
func (s *PaymentService) CreateSetupIntent(ctx context.Context, userID int64) (*dto.SetupIntentResponse, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	customerID := ""
	if user.StripeCustomerID != nil {
		customerID = *user.StripeCustomerID
	}
	if customerID == "" {
		customerID, err = s.payments.CreateCustomer(ctx, user.Email, user.Nickname)
		if err != nil {
			logger.L().Error("Failed to create processor customer",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			return nil, pkgerrors.PaymentSetupFailed
		}
		if err := s.store.SetUserStripeCustomerID(ctx, userID, customerID); err != nil {
			return nil, err
		}
	}

	intent, err := s.payments.CreateSetupIntent(ctx, customerID)
	if err != nil {
		logger.L().Error("Failed to create setup intent",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, pkgerrors.PaymentSetupFailed
	}

	return &dto.SetupIntentResponse{
		ClientSecret: intent.ClientSecret,
		CustomerID:   customerID,
	}, nil
}

// eventStatus maps processor event types to transaction states.
var eventStatus = map[string]model.TransactionStatus{
	"payment_intent.succeeded":      model.TransactionSucceeded,
	"payment_intent.payment_failed": model.TransactionFailed,
	"payment_intent.canceled":       model.TransactionCanceled,
}

// ApplyWebhook verifies and applies one processor webhook delivery. Unknown
// event types are acknowledged and dropped so the processor stops retrying
// them.
func (s *PaymentService) ApplyWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.payments.ConstructWebhookEvent(payload, signature)
	if err != nil {
		return pkgerrors.WebhookSignatureFailed
	}

	status, ok := eventStatus[event.Type]
	if !ok {
		logger.L().Debug("Ignoring webhook event type", zap.String("type", event.Type))
		return nil
	}

	var failureCode *string
	if status == model.TransactionFailed {
		code := "payment_failed"
		failureCode = &code
	}

	tx, err := s.store.GetTransactionByIntentID(ctx, event.IntentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Not ours, or the sweep's insert has not landed yet. Log and
			// acknowledge; the processor retries terminal events anyway.
			logger.L().Warn("Webhook for unknown payment intent",
				zap.String("intent_id", event.IntentID),
				zap.String("type", event.Type),
			)
			return nil
		}
		return err
	}

	if err := s.store.UpdateTransactionStatus(ctx, event.IntentID, status, failureCode); err != nil {
		return fmt.Errorf("failed to apply webhook status: %w", err)
	}

	logger.L().Info("Webhook applied",
		zap.String("intent_id", event.IntentID),
		zap.String("type", event.Type),
		zap.String("status", string(status)),
	)

	if externalInfra() {
		if err := queue.PublishPaymentStatus(model.PaymentStatusMessage{
			IntentID:      event.IntentID,
			Status:        string(status),
			OccurredAt:    time.Now().Format(time.RFC3339),
			UserID:        tx.UserID,
			TransactionID: tx.ID,
		}); err != nil {
			logger.L().Warn("Failed to publish payment status event", zap.Error(err))
		}
	}
	return nil
}

// ListTransactions returns the user's penalty history.
func (s *PaymentService) ListTransactions(ctx context.Context, userID int64, limit int) (*dto.TransactionListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	txs, err := s.store.ListTransactions(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	resp := &dto.TransactionListResponse{
		Transactions: make([]dto.TransactionData, 0, len(txs)),
	}
	for _, tx := range txs {
		resp.Transactions = append(resp.Transactions, dto.TransactionData{
			ID:          fmt.Sprintf("%d", tx.PublicID),
			ChargeDate:  tx.ChargeDate,
			Amount:      tx.Amount,
			Currency:    tx.Currency,
			Status:      string(tx.Status),
			FailureCode: tx.FailureCode,
			CreatedAt:   tx.CreatedAt,
		})
		if tx.Status == model.TransactionSucceeded || tx.Status == model.TransactionPending {
			resp.TotalCharged += tx.Amount
		}
	}
	return resp, nil
}
