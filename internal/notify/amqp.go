package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"surveyapi/internal/config"
)

// publisher is the part of *amqp.Channel the mailer needs.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPMailer publishes messages as persistent JSON to a durable queue.
type AMQPMailer struct {
	conn  *amqp.Connection
	ch    publisher
	queue string
	now   func() time.Time
}

// NewAMQPMailer dials the broker and declares the mail queue.
func NewAMQPMailer(cfg config.RabbitMQConfig) (*AMQPMailer, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is empty")
	}
	queue := cfg.Queue
	if queue == "" {
		queue = "surveyapi.mail"
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare rabbitmq queue: %w", err)
	}
	return &AMQPMailer{conn: conn, ch: ch, queue: queue, now: time.Now}, nil
}

func (m *AMQPMailer) Send(ctx context.Context, msg Message) error {
	if m == nil || m.ch == nil {
		return errors.New("rabbitmq mailer not initialised")
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = m.now().UTC()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return m.ch.PublishWithContext(ctx, "", m.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.CreatedAt,
		Type:         string(msg.Kind),
		Body:         body,
	})
}

// Close releases the channel and the connection.
func (m *AMQPMailer) Close() error {
	if m == nil {
		return nil
	}
	if m.ch != nil {
		_ = m.ch.Close()
	}
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}
