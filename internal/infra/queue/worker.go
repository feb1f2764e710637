package queue

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ContactUpdater is the CRM side of the worker, satisfied by the hubspot
// client.
type ContactUpdater interface {
	UpdateContactProperty(ctx context.Context, contactID, email, property, value string) error
}

// Worker drains contact-update jobs and applies them to the CRM. Failed
// jobs go to the dead-letter queue rather than blocking the stream.
type Worker struct {
	Channel *amqp.Channel
	CRM     ContactUpdater
	Logger  *zap.Logger
}

func NewWorker(ch *amqp.Channel, crm ContactUpdater, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{Channel: ch, CRM: crm, Logger: logger}
}

// Start consumes until the channel closes. Run it on its own goroutine.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer tag
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	w.Logger.Info("contact-update worker started", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var job ContactUpdateJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		w.Logger.Error("malformed contact-update job", zap.Error(err))
		// Poison message: reject without requeue so the DLQ gets it.
		d.Nack(false, false)
		return
	}

	if err := w.CRM.UpdateContactProperty(ctx, job.ContactID, job.Email, job.Property, job.Value); err != nil {
		w.Logger.Warn("contact update failed",
			zap.String("email", job.Email), zap.Error(err))
		d.Nack(false, false)
		return
	}

	w.Logger.Info("contact updated",
		zap.String("email", job.Email), zap.String("property", job.Property))
	d.Ack(false)
}
