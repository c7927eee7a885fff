package notifications

import (
	"context"
	"fmt"
	"sync"

	"showbook/internal/shared/config"
	"showbook/pkg/logger"
)

// Notifier is what the reservation and event services call after a committed
// state change. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, event EventInfo, reservation *ReservationInfo) error
}

// Publisher hands a notification to a transport
type Publisher interface {
	Publish(ctx context.Context, notification *Notification) error
	Close() error
	HealthCheck(ctx context.Context) error
}

// Consumer drains a transport and delivers through a Handler
type Consumer interface {
	Start(ctx context.Context) error
	Stop() error
	HealthCheck(ctx context.Context) error
}

// Handler delivers one decoded notification
type Handler interface {
	Handle(ctx context.Context, notification *Notification) error
}

// Service wires a publisher and, for broker transports, a consumer feeding
// the email worker.
type Service struct {
	transport string
	publisher Publisher
	consumer  Consumer
	log       *logger.Logger

	isRunning bool
	mu        sync.RWMutex
	cancel    context.CancelFunc
}

// NewService builds the transport selected by NOTIFY_TRANSPORT
func NewService(cfg *config.Config, log *logger.Logger) (*Service, error) {
	log = log.WithComponent("notifications")

	sender := newSender(cfg.Email, log)
	worker := NewEmailWorker(sender, cfg.Email.AdminEmail, log)

	svc := &Service{transport: cfg.Notify.Transport, log: log}

	switch cfg.Notify.Transport {
	case "kafka":
		producerConfig := DefaultKafkaProducerConfig()
		producerConfig.Brokers = cfg.Notify.KafkaBrokers
		producerConfig.Topic = cfg.Notify.KafkaTopic

		producer, err := NewKafkaProducer(producerConfig, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create notification producer: %w", err)
		}

		consumerConfig := DefaultConsumerConfig()
		consumerConfig.Brokers = cfg.Notify.KafkaBrokers
		consumerConfig.Topics = []string{cfg.Notify.KafkaTopic}
		consumerConfig.GroupID = cfg.Notify.ConsumerGroupID
		consumerConfig.NumWorkers = cfg.Notify.NumWorkers
		consumerConfig.MaxRetries = cfg.Notify.MaxRetries
		consumerConfig.RetryBackoffDuration = cfg.Notify.RetryBackoff

		consumer, err := NewKafkaConsumer(consumerConfig, worker, log)
		if err != nil {
			producer.Close()
			return nil, fmt.Errorf("failed to create notification consumer: %w", err)
		}
		svc.publisher, svc.consumer = producer, consumer

	case "rabbitmq":
		rabbitConfig := RabbitConfig{
			URL:          cfg.Notify.RabbitURL,
			Queue:        cfg.Notify.RabbitQueue,
			Prefetch:     50,
			MaxRetries:   cfg.Notify.MaxRetries,
			RetryBackoff: cfg.Notify.RetryBackoff,
		}
		publisher, err := NewRabbitPublisher(rabbitConfig, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create rabbitmq publisher: %w", err)
		}
		svc.publisher = publisher
		svc.consumer = NewRabbitConsumer(rabbitConfig, worker, log)

	case "log", "":
		svc.publisher = NewLogPublisher(log)

	default:
		return nil, fmt.Errorf("unknown NOTIFY_TRANSPORT %q", cfg.Notify.Transport)
	}

	return svc, nil
}

// NewServiceWithPublisher is used by tests and by binaries that only publish.
func NewServiceWithPublisher(publisher Publisher, log *logger.Logger) *Service {
	return &Service{transport: "custom", publisher: publisher, log: log}
}

// Notify builds the message and publishes it. Errors are returned for the
// caller to log; they never undo the state change that triggered them.
func (s *Service) Notify(ctx context.Context, kind Kind, event EventInfo, reservation *ReservationInfo) error {
	if !kind.IsValid() {
		return fmt.Errorf("unknown notification kind %q", kind)
	}

	notification := NewBuilder().
		WithEvent(event).
		WithKind(kind).
		WithReservation(reservation).
		Build()

	if err := s.publisher.Publish(ctx, notification); err != nil {
		return fmt.Errorf("publish %s for event %s: %w", kind, event.ID, err)
	}
	return nil
}

// Start launches the consumer workers, if the transport has any
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("notification service is already running")
	}

	if s.consumer != nil {
		ctx, cancel := context.WithCancel(ctx)
		if err := s.consumer.Start(ctx); err != nil {
			cancel()
			return fmt.Errorf("failed to start consumers: %w", err)
		}
		s.cancel = cancel
	}

	s.isRunning = true
	s.log.Info("Notification service started", "transport", s.transport)
	return nil
}

func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.consumer != nil {
		if err := s.consumer.Stop(); err != nil {
			s.log.Error("Error stopping consumer", "error", err)
		}
	}
	if err := s.publisher.Close(); err != nil {
		s.log.Error("Error closing publisher", "error", err)
	}

	s.isRunning = false
	s.log.Info("Notification service stopped")
	return nil
}

func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.publisher.HealthCheck(ctx); err != nil {
		return fmt.Errorf("publisher health check failed: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.consumer != nil && s.isRunning {
		if err := s.consumer.HealthCheck(ctx); err != nil {
			return fmt.Errorf("consumer health check failed: %w", err)
		}
	}
	return nil
}

// LogPublisher only writes a structured record. Default transport.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, n *Notification) error {
	n.Status = StatusQueued
	args := []any{
		"notification_id", n.ID.String(),
		"kind", string(n.Kind),
		"event_id", n.Event.ID.String(),
		"subject", n.Subject,
	}
	if n.Reservation != nil {
		args = append(args, "reservation_id", n.Reservation.ID.String(), "recipient", n.RecipientEmail)
	}
	p.log.InfoContext(ctx, "Notification", args...)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

func (p *LogPublisher) HealthCheck(ctx context.Context) error { return nil }
