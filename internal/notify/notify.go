// Package notify publishes booking confirmations to the mail queue. The
// actual email delivery happens in a separate worker consuming the queue;
// publishing is best-effort and never blocks or fails a booking.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Confirmation is the message body handed to the mail worker.
type Confirmation struct {
	Recipient     string    `json:"recipient"`
	PatientName   string    `json:"patient_name"`
	DoctorName    string    `json:"doctor_name"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	ReservationID string    `json:"reservation_id"`
}

type Notifier interface {
	SendConfirmation(ctx context.Context, c Confirmation) (Outcome, error)
}

type AMQPPublisher struct {
	channel *amqp.Channel
	queue   string
}

// NewAMQPPublisher declares the durable confirmation queue and returns a
// publisher bound to it.
func NewAMQPPublisher(conn *amqp.Connection, queue string) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	return &AMQPPublisher{channel: ch, queue: queue}, nil
}

func (p *AMQPPublisher) SendConfirmation(ctx context.Context, c Confirmation) (Outcome, error) {
	if c.Recipient == "" {
		return OutcomeSkipped, nil
	}

	body, err := json.Marshal(c)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("marshal confirmation: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("publish confirmation: %w", err)
	}

	return OutcomeSent, nil
}

func (p *AMQPPublisher) Close() error {
	return p.channel.Close()
}

// NoopNotifier stands in when no mail queue is configured.
type NoopNotifier struct{}

func (NoopNotifier) SendConfirmation(ctx context.Context, c Confirmation) (Outcome, error) {
	return OutcomeSkipped, nil
}
