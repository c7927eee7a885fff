package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"showbook/pkg/logger"
)

type RabbitConfig struct {
	URL          string
	Queue        string
	Prefetch     int
	MaxRetries   int
	RetryBackoff time.Duration
}

// RabbitPublisher publishes persistent messages to a durable queue. The
// connection is reopened lazily after the broker drops it.
type RabbitPublisher struct {
	config RabbitConfig
	log    *logger.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewRabbitPublisher(config RabbitConfig, log *logger.Logger) (*RabbitPublisher, error) {
	p := &RabbitPublisher{config: config, log: log}
	if err := p.connect(); err != nil {
		return nil, err
	}
	log.Info("RabbitMQ notification publisher ready", "queue", config.Queue)
	return p, nil
}

// connect must be called with mu held or before the publisher is shared
func (p *RabbitPublisher) connect() error {
	conn, err := amqp.Dial(p.config.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel open: %w", err)
	}
	if err := declareQueue(ch, p.config.Queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

func declareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	return nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, notification *Notification) error {
	notification.Status = StatusQueued
	notification.UpdatedAt = time.Now()

	body, err := notification.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    notification.ID.String(),
		Type:         string(notification.Kind),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		if err := p.connect(); err != nil {
			notification.MarkFailed(err)
			return err
		}
	}

	err = p.ch.PublishWithContext(ctx,
		"",             // default exchange
		p.config.Queue, // routing key = queue name
		false,          // mandatory
		false,          // immediate
		pub,
	)
	if err != nil {
		notification.MarkFailed(err)
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

func (p *RabbitPublisher) HealthCheck(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection is closed")
	}
	return nil
}

// RabbitConsumer consumes the notification queue with a reconnect loop
type RabbitConsumer struct {
	config  RabbitConfig
	process *processor
	log     *logger.Logger

	mu        sync.Mutex
	connected bool
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewRabbitConsumer(config RabbitConfig, handler Handler, log *logger.Logger) *RabbitConsumer {
	return &RabbitConsumer{
		config:  config,
		process: newProcessor(handler, config.MaxRetries, config.RetryBackoff, log),
		log:     log,
	}
}

func (rc *RabbitConsumer) Start(ctx context.Context) error {
	ctx, rc.cancel = context.WithCancel(ctx)
	rc.done = make(chan struct{})
	go func() {
		defer close(rc.done)
		rc.run(ctx)
	}()
	return nil
}

func (rc *RabbitConsumer) run(ctx context.Context) {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(rc.config.URL)
		if err != nil {
			rc.log.Warn("RabbitMQ dial failed", "error", err, "retry_in", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		rc.setConnected(true)
		err = rc.consumeLoop(ctx, conn)
		rc.setConnected(false)
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}
		rc.log.Warn("RabbitMQ consume loop ended, reconnecting", "error", err)
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
			return
		}
	}
}

func (rc *RabbitConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(rc.config.Prefetch, 0, false); err != nil {
		rc.log.Warn("RabbitMQ set QoS failed", "error", err)
	}
	if err := declareQueue(ch, rc.config.Queue); err != nil {
		return err
	}

	msgs, err := ch.Consume(rc.config.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := rc.process.handleBytes(ctx, d.Body); err != nil {
				rc.log.Error("Handle notification failed", "message_id", d.MessageId, "error", err)
				_ = d.Nack(false, false) // reject without requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (rc *RabbitConsumer) setConnected(v bool) {
	rc.mu.Lock()
	rc.connected = v
	rc.mu.Unlock()
}

func (rc *RabbitConsumer) Stop() error {
	if rc.cancel != nil {
		rc.cancel()
		<-rc.done
	}
	rc.log.Info("RabbitMQ notification consumer stopped")
	return nil
}

func (rc *RabbitConsumer) HealthCheck(ctx context.Context) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if !rc.connected {
		return fmt.Errorf("rabbitmq consumer is not connected")
	}
	return nil
}
