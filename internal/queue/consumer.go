package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// Consumer reads rental events from RentalsQueue and appends one line per
// event to a log file (logs/rentals.log by default).
type Consumer struct {
    URL     string
    LogPath string
    Log     logrus.FieldLogger

    mu sync.Mutex
}

// NewConsumer returns a Consumer writing to logs/rentals.log.
func NewConsumer(url string, log logrus.FieldLogger) *Consumer {
    return &Consumer{URL: url, LogPath: filepath.Join("logs", "rentals.log"), Log: log}
}

// Run connects to the broker, declares the queue and consumes until ctx is
// cancelled.  Lost connections are retried with exponential backoff capped
// at 30s.  Run returns ctx.Err() on shutdown.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.WithError(err).WithField("retry_in", backoff.String()).Warn("rental-consumer: dial failed")
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.WithError(err).Warn("rental-consumer: consume loop ended; reconnecting")
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.WithError(err).Warn("rental-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(RentalsQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.ConsumeWithContext(ctx, RentalsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.Handle(d.Body); err != nil {
                c.Log.WithError(err).Error("rental-consumer: handle message failed")
                _ = d.Nack(false, false) // no requeue, avoids a poison-message loop
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one message body and appends it to the log file.
func (c *Consumer) Handle(body []byte) error {
    var ev RentalEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.RentalID == 0 {
        return errors.New("event missing type or rental_id")
    }

    c.mu.Lock()
    defer c.mu.Unlock()
    if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    return WriteEventLine(f, ev)
}

// WriteEventLine renders ev as a single human-friendly line.
func WriteEventLine(w io.Writer, ev RentalEvent) error {
    fee := "none"
    if ev.DelayFee != nil {
        fee = fmt.Sprintf("%d cents", *ev.DelayFee)
    }
    _, err := fmt.Fprintf(w, "[%s] %s | rental_id=%d | customer_id=%d | game_id=%d | days=%d | original=%d cents | delay_fee=%s\n",
        ev.OccurredAt, ev.Type, ev.RentalID, ev.CustomerID, ev.GameID, ev.DaysRented, ev.OriginalPrice, fee)
    if err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
