package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// QueueName is the durable queue carrying one email job per recipient.
const QueueName = "slot.opened"

// EmailJob is the message body published to QueueName.
type EmailJob struct {
	Email      Email     `json:"email"`
	CoachName  string    `json:"coach_name"`
	BookingURL string    `json:"booking_url"`
	CreatedAt  time.Time `json:"created_at"`
}

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueueDispatcher enqueues rendered emails to RabbitMQ instead of sending
// them inline. A recipient counts as sent once the broker accepted its job.
type QueueDispatcher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	ch      amqpPublisher
	timeout time.Duration
	logger  *zap.Logger
}

// DialQueueDispatcher connects to the broker and declares QueueName.
func DialQueueDispatcher(url string, timeout time.Duration, logger *zap.Logger) (*QueueDispatcher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := declareQueue(ch); err != nil {
		_ = conn.Close()
		return nil, err
	}

	d := newQueueDispatcher(ch, timeout, logger)
	d.conn = conn
	return d, nil
}

func newQueueDispatcher(ch amqpPublisher, timeout time.Duration, logger *zap.Logger) *QueueDispatcher {
	return &QueueDispatcher{ch: ch, timeout: timeout, logger: logger}
}

func declareQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		QueueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	)
	if err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	return nil
}

func (d *QueueDispatcher) Notify(ctx context.Context, msg Message) Result {
	// один канал AMQP, публикуем последовательно
	res := FanOut(ctx, msg.Recipients, d.timeout, 1, func(ctx context.Context, to string) error {
		email, err := RenderEmail(msg, to)
		if err != nil {
			return err
		}
		return d.publish(ctx, EmailJob{
			Email:      email,
			CoachName:  msg.CoachName,
			BookingURL: msg.Summary.BookingURL,
			CreatedAt:  time.Now().UTC(),
		})
	})

	for _, e := range res.Errors {
		d.logger.Warn("Failed to enqueue slot notification", zap.String("to", e.Recipient), zap.Error(e.Err))
	}
	return res
}

func (d *QueueDispatcher) publish(ctx context.Context, job EmailJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.ch.PublishWithContext(ctx,
		"",        // default exchange
		QueueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// Close closes the broker connection.
func (d *QueueDispatcher) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

// Consumer reads EmailJobs from QueueName and delivers them with a Sender.
// It reconnects with backoff until its context is cancelled.
type Consumer struct {
	url     string
	sender  Sender
	timeout time.Duration
	logger  *zap.Logger
}

func NewConsumer(url string, sender Sender, timeout time.Duration, logger *zap.Logger) *Consumer {
	return &Consumer{url: url, sender: sender, timeout: timeout, logger: logger}
}

func (c *Consumer) Name() string {
	return "email-queue-consumer"
}

func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("Email consumer failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("Email consumer loop ended, reconnecting", zap.Error(err))
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		c.logger.Warn("Email consumer failed to set QoS", zap.Error(err))
	}
	if err := declareQueue(ch); err != nil {
		return err
	}

	deliveries, err := ch.ConsumeWithContext(ctx, QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

// handle delivers one job. Failed jobs are rejected without requeue:
// notification delivery is best effort.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var job EmailJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		c.logger.Error("Email consumer got malformed job", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	sctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.sender.Send(sctx, job.Email); err != nil {
		c.logger.Warn("Email consumer failed to deliver", zap.String("to", job.Email.To), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
