package queue

import (
	"fmt"

	"go.uber.org/zap"

	"WakeOrPay/internal/model"
	"WakeOrPay/pkg/logger"
	"WakeOrPay/pkg/snowflake"
	"WakeOrPay/storage/mq"
)

func ensureMessageID(id *string, prefix string) error {
	if *id != "" {
		return nil
	}
	n, err := snowflake.NextID()
	if err != nil {
		return fmt.Errorf("failed to generate message ID: %w", err)
	}
	*id = fmt.Sprintf("%s_%d", prefix, n)
	return nil
}

// PublishPenaltyCharged announces a penalty charge issued by the sweep.
func PublishPenaltyCharged(msg model.PenaltyChargedMessage) error {
	if err := ensureMessageID(&msg.MessageID, "penalty"); err != nil {
		return err
	}

	if err := mq.PublishMessage(mq.EventsExchange, mq.PenaltyChargedKey, msg); err != nil {
		logger.Logger.Error("Failed to publish penalty charged message",
			zap.String("message_id", msg.MessageID),
			zap.Int64("user_id", msg.UserID),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Published penalty charged message",
		zap.String("message_id", msg.MessageID),
		zap.String("charge_date", msg.ChargeDate),
		zap.Int64("user_id", msg.UserID),
		zap.Int64("amount", msg.Amount),
	)
	return nil
}

// PublishPaymentStatus announces a processor webhook outcome.
func PublishPaymentStatus(msg model.PaymentStatusMessage) error {
	if err := ensureMessageID(&msg.MessageID, "paystatus"); err != nil {
		return err
	}

	if err := mq.PublishMessage(mq.EventsExchange, mq.PaymentStatusKey, msg); err != nil {
		logger.Logger.Error("Failed to publish payment status message",
			zap.String("message_id", msg.MessageID),
			zap.String("intent_id", msg.IntentID),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Published payment status message",
		zap.String("message_id", msg.MessageID),
		zap.String("intent_id", msg.IntentID),
		zap.String("status", msg.Status),
	)
	return nil
}

// PublishReconciliation flags a verified-after-charge case for review.
func PublishReconciliation(msg model.ReconciliationMessage) error {
	if err := ensureMessageID(&msg.MessageID, "reconcile"); err != nil {
		return err
	}

	if err := mq.PublishMessage(mq.EventsExchange, mq.ReconciliationKey, msg); err != nil {
		logger.Logger.Error("Failed to publish reconciliation message",
			zap.String("message_id", msg.MessageID),
			zap.Int64("user_id", msg.UserID),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Warn("Published reconciliation message",
		zap.String("message_id", msg.MessageID),
		zap.String("charge_date", msg.ChargeDate),
		zap.Int64("user_id", msg.UserID),
		zap.String("reason", msg.Reason),
	)
	return nil
}
