package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"WakeOrPay/internal/cache"
	"WakeOrPay/internal/model"
	"WakeOrPay/internal/store"
	pkgerrors "WakeOrPay/pkg/errors"
	"WakeOrPay/pkg/logger"
	"WakeOrPay/storage/mq"
)

var consumerStore store.Store

// SetStore injects the persistence layer. Called once at worker startup.
func SetStore(s store.Store) {
	consumerStore = s
}

// claimMessage runs the idempotency check shared by all consumers. A nil
// error with ok=false means a duplicate delivery.
func claimMessage(ctx context.Context, messageID string) (bool, error) {
	ok, err := cache.TryMarkMessageProcessing(ctx, messageID, 24*time.Hour)
	if err != nil {
		logger.Logger.Warn("Failed to check message processed status",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		// On cache failure, process anyway. Store uniqueness catches dupes.
		return true, nil
	}
	return ok, nil
}

// StartPenaltyChargedConsumer handles post-charge fan-out: notification
// delivery and stats. The charge itself already happened in the sweep.
func StartPenaltyChargedConsumer(ctx context.Context) error {
	handler := func(body []byte) error {
		var msg model.PenaltyChargedMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal penalty charged message: %w", err)
		}

		ok, err := claimMessage(ctx, msg.MessageID)
		if err != nil {
			return err
		}
		if !ok {
			return &pkgerrors.SkipMessageError{Reason: fmt.Sprintf("message %s already processed", msg.MessageID)}
		}

		logger.Logger.Info("Processing penalty charged event",
			zap.String("message_id", msg.MessageID),
			zap.String("charge_date", msg.ChargeDate),
			zap.Int64("user_id", msg.UserID),
			zap.Int64("amount", msg.Amount),
			zap.String("currency", msg.Currency),
		)

		if err := cache.MarkCharged(ctx, msg.ChargeDate, msg.UserID); err != nil {
			logger.Logger.Warn("Failed to mark charge hint",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}

		if err := cache.MarkMessageProcessed(ctx, msg.MessageID, 48*time.Hour); err != nil {
			logger.Logger.Warn("Failed to mark message as processed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}
		return nil
	}

	return mq.Consume(mq.ConsumeOptions{
		Queue:         mq.PenaltyChargedQueue,
		ConsumerTag:   "penalty_charged_consumer",
		PrefetchCount: 10,
		Handler:       handler,
	})
}

// StartPaymentStatusConsumer applies processor webhook outcomes to the
// matching transaction row.
func StartPaymentStatusConsumer(ctx context.Context) error {
	handler := func(body []byte) error {
		var msg model.PaymentStatusMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal payment status message: %w", err)
		}

		ok, err := claimMessage(ctx, msg.MessageID)
		if err != nil {
			return err
		}
		if !ok {
			return &pkgerrors.SkipMessageError{Reason: fmt.Sprintf("message %s already processed", msg.MessageID)}
		}

		status := model.TransactionStatus(msg.Status)
		if !model.ValidTransactionStatus(status) {
			return &pkgerrors.SkipMessageError{Reason: fmt.Sprintf("unknown status %q for intent %s", msg.Status, msg.IntentID)}
		}

		if consumerStore == nil {
			cache.UnmarkMessageProcessing(ctx, msg.MessageID)
			return fmt.Errorf("consumer store is not set")
		}

		err = consumerStore.UpdateTransactionStatus(ctx, msg.IntentID, status, nil)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Webhook can outrun the sweep's own insert. Requeue and let
				// redelivery find the row.
				cache.UnmarkMessageProcessing(ctx, msg.MessageID)
				return fmt.Errorf("transaction not found for intent %s, will retry", msg.IntentID)
			}
			cache.UnmarkMessageProcessing(ctx, msg.MessageID)
			return fmt.Errorf("failed to update transaction status: %w", err)
		}

		logger.Logger.Info("Applied payment status",
			zap.String("message_id", msg.MessageID),
			zap.String("intent_id", msg.IntentID),
			zap.String("status", msg.Status),
		)

		if err := cache.MarkMessageProcessed(ctx, msg.MessageID, 48*time.Hour); err != nil {
			logger.Logger.Warn("Failed to mark message as processed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}
		return nil
	}

	return mq.Consume(mq.ConsumeOptions{
		Queue:         mq.PaymentStatusQueue,
		ConsumerTag:   "payment_status_consumer",
		PrefetchCount: 10,
		Handler:       handler,
	})
}

// StartReconciliationConsumer surfaces verified-after-charge cases. Refunds
// stay a manual decision; the consumer's job is a durable, loud record.
func StartReconciliationConsumer(ctx context.Context) error {
	handler := func(body []byte) error {
		var msg model.ReconciliationMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal reconciliation message: %w", err)
		}

		ok, err := claimMessage(ctx, msg.MessageID)
		if err != nil {
			return err
		}
		if !ok {
			return &pkgerrors.SkipMessageError{Reason: fmt.Sprintf("message %s already processed", msg.MessageID)}
		}

		logger.Logger.Warn("Reconciliation required: verified after charge",
			zap.String("message_id", msg.MessageID),
			zap.String("charge_date", msg.ChargeDate),
			zap.String("verified_at", msg.VerifiedAt),
			zap.Int64("user_id", msg.UserID),
			zap.Int64("transaction_id", msg.TransactionID),
			zap.String("reason", msg.Reason),
		)

		if err := cache.MarkMessageProcessed(ctx, msg.MessageID, 48*time.Hour); err != nil {
			logger.Logger.Warn("Failed to mark message as processed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}
		return nil
	}

	return mq.Consume(mq.ConsumeOptions{
		Queue:         mq.ReconciliationQueue,
		ConsumerTag:   "reconciliation_consumer",
		PrefetchCount: 10,
		Handler:       handler,
	})
}
