package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/setupintent"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"WakeOrPay/pkg/logger"
)

// StripeClient implements Client against the Stripe API.
type StripeClient struct {
	webhookSecret string
}

func NewStripeClient(secretKey, webhookSecret string) (*StripeClient, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key is empty")
	}

	stripe.Key = secretKey

	return &StripeClient{
		webhookSecret: webhookSecret,
	}, nil
}

func (c *StripeClient) CreatePaymentIntent(
	ctx context.Context,
	amount int64,
	currency string,
	metadata map[string]string,
	idempotencyKey string,
) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String("Wake-or-Pay penalty charge"),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return nil, &DeclineError{
				Code:    string(stripeErr.Code),
				Message: stripeErr.Msg,
			}
		}
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	logger.L().Debug("Created Stripe payment intent",
		zap.String("intent_id", pi.ID),
		zap.Int64("amount", amount),
		zap.String("currency", currency),
	)

	return &Intent{
		ID:     pi.ID,
		Status: string(pi.Status),
	}, nil
}

func (c *StripeClient) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx

	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}

	return cust.ID, nil
}

func (c *StripeClient) CreateSetupIntent(ctx context.Context, customerID string) (*SetupIntent, error) {
	params := &stripe.SetupIntentParams{
		Customer: stripe.String(customerID),
		AutomaticPaymentMethods: &stripe.SetupIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	si, err := setupintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create setup intent: %w", err)
	}

	return &SetupIntent{
		ID:           si.ID,
		ClientSecret: si.ClientSecret,
		CustomerID:   customerID,
	}, nil
}

func (c *StripeClient) ConstructWebhookEvent(payload []byte, signature string) (*Event, error) {
	if c.webhookSecret == "" {
		return nil, errors.New("stripe webhook secret is not configured")
	}

	event, err := webhook.ConstructEvent(payload, signature, c.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to verify webhook signature: %w", err)
	}

	var object struct {
		ID string `json:"id"`
	}
	if len(event.Data.Raw) > 0 {
		if err := json.Unmarshal(event.Data.Raw, &object); err != nil {
			return nil, fmt.Errorf("failed to parse webhook object: %w", err)
		}
	}

	return &Event{
		ID:       event.ID,
		Type:     string(event.Type),
		IntentID: object.ID,
	}, nil
}
