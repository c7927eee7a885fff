package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"showbook/pkg/logger"
)

type ConsumerConfig struct {
	Brokers              []string
	GroupID              string
	Topics               []string
	NumWorkers           int
	SessionTimeoutMs     int
	HeartbeatMs          int
	RetryBackoffMs       int
	MaxProcessingTime    time.Duration
	OffsetOldest         bool
	MaxRetries           int
	RetryBackoffDuration time.Duration
}

func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:              []string{"localhost:9092"},
		GroupID:              "showbook-notification-workers",
		Topics:               []string{"showbook-notifications"},
		NumWorkers:           3,
		SessionTimeoutMs:     30000,
		HeartbeatMs:          3000,
		RetryBackoffMs:       100,
		MaxProcessingTime:    5 * time.Minute,
		OffsetOldest:         false,
		MaxRetries:           3,
		RetryBackoffDuration: time.Second,
	}
}

// KafkaConsumer runs a consumer group and hands every message to a Handler
type KafkaConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	handler       Handler
	log           *logger.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	done   chan struct{}
}

func NewKafkaConsumer(config *ConsumerConfig, handler Handler, log *logger.Logger) (*KafkaConsumer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Consumer.Group.Session.Timeout = time.Duration(config.SessionTimeoutMs) * time.Millisecond
	saramaConfig.Consumer.Group.Heartbeat.Interval = time.Duration(config.HeartbeatMs) * time.Millisecond
	saramaConfig.Consumer.Retry.Backoff = time.Duration(config.RetryBackoffMs) * time.Millisecond
	saramaConfig.Consumer.MaxProcessingTime = config.MaxProcessingTime
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = 1 * time.Second

	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	consumerGroup, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &KafkaConsumer{
		consumerGroup: consumerGroup,
		config:        config,
		handler:       handler,
		log:           log,
		done:          make(chan struct{}),
	}, nil
}

func (kc *KafkaConsumer) Start(ctx context.Context) error {
	ctx, kc.cancel = context.WithCancel(ctx)

	kc.log.Info("Starting notification consumer workers", "workers", kc.config.NumWorkers, "topics", kc.config.Topics)

	go kc.handleErrors()

	for i := 0; i < kc.config.NumWorkers; i++ {
		kc.wg.Add(1)
		go func(workerID int) {
			defer kc.wg.Done()
			kc.runWorker(ctx, workerID)
		}(i)
	}

	go func() {
		kc.wg.Wait()
		close(kc.done)
	}()
	return nil
}

func (kc *KafkaConsumer) runWorker(ctx context.Context, workerID int) {
	handler := &consumerGroupHandler{
		workerID: workerID,
		process:  newProcessor(kc.handler, kc.config.MaxRetries, kc.config.RetryBackoffDuration, kc.log),
		log:      kc.log,
	}

	for {
		if ctx.Err() != nil {
			kc.log.Info("Notification worker shutting down", "worker", workerID)
			return
		}
		if err := kc.consumerGroup.Consume(ctx, kc.config.Topics, handler); err != nil {
			kc.log.Error("Error consuming messages", "worker", workerID, "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
		}
	}
}

func (kc *KafkaConsumer) handleErrors() {
	for err := range kc.consumerGroup.Errors() {
		kc.log.Error("Consumer group error", "error", err)
	}
}

func (kc *KafkaConsumer) Stop() error {
	if kc.cancel != nil {
		kc.cancel()
	}
	if err := kc.consumerGroup.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	kc.log.Info("Notification consumer stopped")
	return nil
}

func (kc *KafkaConsumer) HealthCheck(ctx context.Context) error {
	select {
	case <-kc.done:
		return fmt.Errorf("consumer workers have exited")
	default:
		return nil
	}
}

type consumerGroupHandler struct {
	workerID int
	process  *processor
	log      *logger.Logger
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.log.Debug("Consumer group session started", "worker", h.workerID)
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.log.Debug("Consumer group session ended", "worker", h.workerID)
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.process.handleBytes(session.Context(), message.Value); err != nil {
				h.log.Error("Error processing message",
					"worker", h.workerID,
					"partition", message.Partition,
					"offset", message.Offset,
					"error", err,
				)
			}
			// Failed messages are not replayed; delivery is best effort.
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

// processor decodes and delivers with exponential backoff. Shared by the
// Kafka and RabbitMQ consumers.
type processor struct {
	handler    Handler
	maxRetries int
	backoff    time.Duration
	log        *logger.Logger
}

func newProcessor(handler Handler, maxRetries int, backoff time.Duration, log *logger.Logger) *processor {
	return &processor{handler: handler, maxRetries: maxRetries, backoff: backoff, log: log}
}

func (p *processor) handleBytes(ctx context.Context, body []byte) error {
	var notification Notification
	if err := json.Unmarshal(body, &notification); err != nil {
		return fmt.Errorf("failed to unmarshal notification: %w", err)
	}

	if notification.IsExpired() {
		p.log.Debug("Notification expired, skipping", "notification_id", notification.ID.String())
		return nil
	}

	notification.Status = StatusSending
	if err := p.executeWithRetry(ctx, &notification); err != nil {
		notification.MarkFailed(err)
		return err
	}

	notification.MarkSent()
	return nil
}

func (p *processor) executeWithRetry(ctx context.Context, notification *Notification) error {
	for attempt := 0; ; attempt++ {
		err := p.handler.Handle(ctx, notification)
		if err == nil {
			if attempt > 0 {
				p.log.Info("Notification delivered after retries", "retries", attempt)
			}
			return nil
		}

		if attempt >= p.maxRetries {
			return fmt.Errorf("giving up after %d attempts: %w", attempt+1, err)
		}

		// Exponential backoff
		delay := p.backoff * time.Duration(1<<attempt)
		p.log.Warn("Retrying notification delivery", "attempt", attempt+1, "delay", delay, "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
