package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/boardcamp-api/internal/queue"
)

// Publisher delivers rental events.  Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, ev queue.RentalEvent) error
}

// NopPublisher drops every event.  Used when EVENTS_ENABLED is false.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.RentalEvent) error { return nil }

// AMQPPublisher publishes events to the durable rentals queue.  The
// connection is opened lazily and reopened after any failure.
type AMQPPublisher struct {
	url string
	log logrus.FieldLogger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url string, log logrus.FieldLogger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log}
}

// Publish marshals ev and sends it as a persistent message.  Any error is
// logged and returned so the caller can choose to ignore it.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.RentalEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(dialTimeout(ctx)); err != nil {
		p.log.WithError(err).Warn("rabbitmq: connect failed")
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := p.ch.PublishWithContext(ctx, "", queue.RentalsQueue, false, false, pub); err != nil {
		p.log.WithError(err).WithField("type", ev.Type).Warn("rabbitmq: publish failed")
		p.reset()
		return err
	}
	return nil
}

// dialTimeout bounds the TCP connect and AMQP handshake by the caller's
// deadline so a silent broker cannot hold the request path.
func dialTimeout(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
		return time.Millisecond
	}
	return publishTimeout
}

func (p *AMQPPublisher) ensureChannel(timeout time.Duration) error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(queue.RentalsQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
