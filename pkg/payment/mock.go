package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type MockCharge struct {
	Amount         int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// MockClient is a configurable in-memory processor, implements Client.
type MockClient struct {
	mu      sync.Mutex
	Charges []MockCharge

	// intents by idempotency key, so repeated calls behave like the real
	// processor: same key returns the same intent instead of a new charge
	intents map[string]*Intent

	// FailNext makes the next CreatePaymentIntent return a transport error
	// and resets itself.
	FailNext bool

	// DeclineNext makes the next CreatePaymentIntent return a DeclineError
	// and resets itself.
	DeclineNext bool
}

func NewMockClient() *MockClient {
	return &MockClient{
		Charges: make([]MockCharge, 0),
		intents: make(map[string]*Intent),
	}
}

func (m *MockClient) CreatePaymentIntent(
	ctx context.Context,
	amount int64,
	currency string,
	metadata map[string]string,
	idempotencyKey string,
) (*Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNext {
		m.FailNext = false
		return nil, errors.New("mock processor unreachable")
	}

	if m.DeclineNext {
		m.DeclineNext = false
		return nil, &DeclineError{Code: "card_declined", Message: "mock decline"}
	}

	if idempotencyKey != "" {
		if intent, ok := m.intents[idempotencyKey]; ok {
			return intent, nil
		}
	}

	m.Charges = append(m.Charges, MockCharge{
		Amount:         amount,
		Currency:       currency,
		Metadata:       metadata,
		IdempotencyKey: idempotencyKey,
	})

	intent := &Intent{
		ID:     "pi_mock_" + uuid.NewString(),
		Status: "requires_payment_method",
	}
	if idempotencyKey != "" {
		m.intents[idempotencyKey] = intent
	}

	return intent, nil
}

func (m *MockClient) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	return "cus_mock_" + uuid.NewString(), nil
}

func (m *MockClient) CreateSetupIntent(ctx context.Context, customerID string) (*SetupIntent, error) {
	id := "seti_mock_" + uuid.NewString()
	return &SetupIntent{
		ID:           id,
		ClientSecret: fmt.Sprintf("%s_secret", id),
		CustomerID:   customerID,
	}, nil
}

// ConstructWebhookEvent on the mock skips signature verification and expects
// the payload to be "<event_type>:<intent_id>".
func (m *MockClient) ConstructWebhookEvent(payload []byte, signature string) (*Event, error) {
	var eventType, intentID string
	if _, err := fmt.Sscanf(string(payload), "%s", &eventType); err != nil {
		return nil, errors.New("mock webhook payload is empty")
	}
	for i, b := range payload {
		if b == ':' {
			eventType = string(payload[:i])
			intentID = string(payload[i+1:])
			break
		}
	}
	if intentID == "" {
		return nil, errors.New("mock webhook payload must be type:intent_id")
	}

	return &Event{
		ID:       "evt_mock_" + uuid.NewString(),
		Type:     eventType,
		IntentID: intentID,
	}, nil
}

// ChargeCount reports how many distinct charges the mock accepted.
func (m *MockClient) ChargeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Charges)
}
