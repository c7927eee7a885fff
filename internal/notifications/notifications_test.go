package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"

	"showbook/pkg/logger"
)

type capturePublisher struct {
	mu   sync.Mutex
	sent []*Notification
	err  error
}

func (p *capturePublisher) Publish(ctx context.Context, n *Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, n)
	return nil
}

func (p *capturePublisher) Close() error { return nil }
func (p *capturePublisher) HealthCheck(ctx context.Context) error { return nil }

type mail struct {
	to, subject, html, text string
}

type captureSender struct {
	mails []mail
}

func (s *captureSender) SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error {
	s.mails = append(s.mails, mail{to, subject, htmlBody, textBody})
	return nil
}

func sampleEvent() EventInfo {
	return EventInfo{
		ID:                uuid.New(),
		Name:              "Murder at the Manor",
		Date:              time.Date(2026, 11, 14, 19, 0, 0, 0, time.UTC),
		Type:              "weekend",
		RemainingCapacity: 10,
	}
}

func sampleReservation() *ReservationInfo {
	return &ReservationInfo{
		ID:              uuid.New(),
		CustomerName:    "Robin Jansen",
		Email:           "robin@example.com",
		NumberOfPersons: 4,
		Status:          "confirmed",
	}
}

func TestBuilder(t *testing.T) {
	event := sampleEvent()
	res := sampleReservation()

	n := NewBuilder().WithEvent(event).WithKind(KindReservationConfirmed).WithReservation(res).Build()

	if n.RecipientEmail != res.Email || n.RecipientName != res.CustomerName {
		t.Errorf("recipient not taken from reservation: %+v", n)
	}
	if n.Priority != PriorityHigh {
		t.Errorf("priority = %s, want HIGH", n.Priority)
	}
	if !strings.Contains(n.Subject, event.Name) {
		t.Errorf("subject %q does not name the event", n.Subject)
	}
	if n.PartitionKey() != event.ID.String() {
		t.Errorf("partition key = %s, want event id", n.PartitionKey())
	}
}

func TestServiceNotify(t *testing.T) {
	pub := &capturePublisher{}
	svc := NewServiceWithPublisher(pub, logger.Discard())

	if err := svc.Notify(context.Background(), KindWaitlistDeactivated, sampleEvent(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.sent) != 1 || pub.sent[0].Kind != KindWaitlistDeactivated || pub.sent[0].HasRecipient() {
		t.Fatalf("unexpected publish: %+v", pub.sent)
	}

	if err := svc.Notify(context.Background(), Kind("bogus"), sampleEvent(), nil); err == nil {
		t.Error("expected error for unknown kind")
	}

	pub.err = errors.New("broker down")
	if err := svc.Notify(context.Background(), KindReservationCancelled, sampleEvent(), sampleReservation()); err == nil {
		t.Error("expected publish error to surface")
	}
}

func TestKafkaProducerPublish(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	defer mock.Close()

	event := sampleEvent()
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var n Notification
		if err := json.Unmarshal(val, &n); err != nil {
			return err
		}
		if n.Kind != KindReservationSubmitted || n.Event.ID != event.ID {
			return fmt.Errorf("unexpected payload %+v", n)
		}
		return nil
	})

	producer := NewKafkaProducerFromSync(mock, DefaultKafkaProducerConfig(), logger.Discard())
	n := NewBuilder().WithEvent(event).WithKind(KindReservationSubmitted).Build()

	if err := producer.Publish(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Status != StatusQueued {
		t.Errorf("status = %s, want QUEUED", n.Status)
	}
}

type flakyHandler struct {
	failures int
	calls    int
}

func (h *flakyHandler) Handle(ctx context.Context, n *Notification) error {
	h.calls++
	if h.calls <= h.failures {
		return errors.New("smtp unavailable")
	}
	return nil
}

func TestProcessorRetries(t *testing.T) {
	body, _ := NewBuilder().WithEvent(sampleEvent()).WithKind(KindReservationRejected).Build().ToJSON()

	tests := []struct {
		name      string
		failures  int
		expectErr bool
		calls     int
	}{
		{"first try", 0, false, 1},
		{"recovers", 2, false, 3},
		{"gives up", 10, true, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &flakyHandler{failures: tt.failures}
			p := newProcessor(h, 3, time.Millisecond, logger.Discard())

			err := p.handleBytes(context.Background(), body)
			if (err != nil) != tt.expectErr {
				t.Fatalf("err = %v, expectErr %v", err, tt.expectErr)
			}
			if h.calls != tt.calls {
				t.Errorf("calls = %d, want %d", h.calls, tt.calls)
			}
		})
	}
}

func TestProcessorRejectsGarbage(t *testing.T) {
	p := newProcessor(&flakyHandler{}, 0, time.Millisecond, logger.Discard())
	if err := p.handleBytes(context.Background(), []byte("{not json")); err == nil {
		t.Error("expected unmarshal error")
	}
}

func TestEmailWorker(t *testing.T) {
	sender := &captureSender{}
	worker := NewEmailWorker(sender, "", logger.Discard())
	ctx := context.Background()

	confirmed := NewBuilder().WithEvent(sampleEvent()).WithKind(KindReservationConfirmed).WithReservation(sampleReservation()).Build()
	if err := worker.Handle(ctx, confirmed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.mails) != 1 {
		t.Fatalf("expected one mail, got %d", len(sender.mails))
	}
	m := sender.mails[0]
	if m.to != "robin@example.com" {
		t.Errorf("to = %s", m.to)
	}
	if !strings.Contains(m.html, "data:image/png;base64,") {
		t.Error("confirmation mail should embed a QR code")
	}
	if !strings.Contains(m.text, "4 guests") || !strings.Contains(m.text, "Saturday 14 November 2026") {
		t.Errorf("unexpected text body: %q", m.text)
	}

	deactivated := NewBuilder().WithEvent(sampleEvent()).WithKind(KindWaitlistDeactivated).Build()
	if err := worker.Handle(ctx, deactivated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.mails) != 1 {
		t.Error("event-level notice without admin address should be skipped")
	}

	adminWorker := NewEmailWorker(sender, "boxoffice@example.com", logger.Discard())
	if err := adminWorker.Handle(ctx, deactivated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.mails) != 2 || sender.mails[1].to != "boxoffice@example.com" {
		t.Errorf("expected mail to admin, got %+v", sender.mails)
	}
}

func TestTemplatesCoverEveryKind(t *testing.T) {
	tmpls, err := loadTemplates()
	if err != nil {
		t.Fatalf("templates failed to parse: %v", err)
	}
	kinds := []Kind{
		KindWaitlistDeactivated, KindReservationSubmitted, KindReservationConfirmed,
		KindReservationCancelled, KindReservationRejected, KindReservationWaitlisted,
	}
	for _, kind := range kinds {
		if _, _, err := tmpls.render(kind, mailData{EventName: "x"}); err != nil {
			t.Errorf("render %s: %v", kind, err)
		}
	}
}
