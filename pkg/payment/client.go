package payment

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"WakeOrPay/config"
	"WakeOrPay/pkg/logger"
)

// Intent is the processor-agnostic view of a payment intent.
type Intent struct {
	ID     string
	Status string // processor status, e.g. requires_payment_method, succeeded
}

// SetupIntent carries what the client app needs to attach a payment method.
type SetupIntent struct {
	ID           string
	ClientSecret string
	CustomerID   string
}

// Event is a verified webhook event from the processor.
type Event struct {
	ID       string
	Type     string // payment_intent.succeeded, payment_intent.payment_failed, payment_intent.canceled
	IntentID string
}

// DeclineError reports a processor-side rejection (insufficient funds, bad
// payment method). The charge attempt completed; it is not a transport error.
type DeclineError struct {
	Code    string
	Message string
}

func (e *DeclineError) Error() string {
	return fmt.Sprintf("payment declined (%s): %s", e.Code, e.Message)
}

// Client is the payment processor interface.
type Client interface {
	// CreatePaymentIntent creates (or, under the same idempotency key,
	// retrieves) a payment intent. idempotencyKey must be stable per charge.
	CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string, idempotencyKey string) (*Intent, error)

	// CreateCustomer registers a customer with the processor.
	CreateCustomer(ctx context.Context, email, name string) (string, error)

	// CreateSetupIntent prepares payment-method collection for a customer.
	CreateSetupIntent(ctx context.Context, customerID string) (*SetupIntent, error)

	// ConstructWebhookEvent verifies a raw webhook body against its signature.
	ConstructWebhookEvent(payload []byte, signature string) (*Event, error)
}

var (
	paymentClient Client
	paymentOnce   sync.Once
	paymentErr    error
)

// Init selects the processor implementation by explicit configuration.
func Init() error {
	paymentOnce.Do(func() {
		cfg := config.Cfg

		switch cfg.PaymentProvider {
		case "stripe":
			paymentClient, paymentErr = NewStripeClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
		case "mock":
			paymentClient = NewMockClient()
		default:
			paymentErr = fmt.Errorf("unsupported payment provider: %s", cfg.PaymentProvider)
		}

		if paymentErr != nil {
			logger.L().Error("Failed to initialize payment client", zap.Error(paymentErr))
			return
		}

		logger.L().Info("Payment client initialized successfully",
			zap.String("provider", cfg.PaymentProvider),
		)
	})

	return paymentErr
}

func GetClient() Client {
	if paymentClient == nil {
		panic("payment client not initialized, call payment.Init() first")
	}
	return paymentClient
}
