package mq

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"WakeOrPay/config"
)

// Exchange and queue topology. All settlement traffic flows through one
// topic exchange keyed by event type.
const (
	EventsExchange = "wakeorpay.events"

	PenaltyChargedQueue = "wakeorpay.penalty.charged"
	PaymentStatusQueue  = "wakeorpay.payment.status"
	ReconciliationQueue = "wakeorpay.reconciliation"

	PenaltyChargedKey = "penalty.charged"
	PaymentStatusKey  = "payment.status"
	ReconciliationKey = "reconciliation"
)

var (
	conn    *amqp.Connection
	mqOnce  sync.Once
	initErr error
)

func Init() error {
	mqOnce.Do(func() {
		conn, initErr = amqp.Dial(config.Cfg.GetRabbitMQURL())
		if initErr != nil {
			return
		}
		initErr = declareTopology()
	})
	return initErr
}

func declareTopology() error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}

	bindings := []struct {
		queue string
		key   string
	}{
		{PenaltyChargedQueue, PenaltyChargedKey},
		{PaymentStatusQueue, PaymentStatusKey},
		{ReconciliationQueue, ReconciliationKey},
	}
	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
			return err
		}
		if err := ch.QueueBind(b.queue, b.key, EventsExchange, false, nil); err != nil {
			return err
		}
	}
	return nil
}

func Connection() *amqp.Connection {
	return conn
}

func Close(ctx context.Context) error {
	if conn == nil {
		return nil
	}
	return conn.Close()
}
