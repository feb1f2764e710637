package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ContactUpdateJob asks the worker to set one CRM contact property, used to
// push the tracker link back to the contact after onboarding.
type ContactUpdateJob struct {
	ContactID string `json:"contact_id"`
	Email     string `json:"email"`
	Property  string `json:"property"`
	Value     string `json:"value"`
}

type Producer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *Producer {
	return &Producer{Conn: conn, Ch: ch}
}

func (p *Producer) PublishContactUpdate(ctx context.Context, job ContactUpdateJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal contact update: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish contact update: %w", err)
	}
	return nil
}
