package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends SeatingSavedEvent messages.  Each call dials the broker,
// declares the queue and publishes one persistent message; callers treat a
// failure as non-fatal.
type Publisher struct {
    url  string
    dial func(url string) (*amqp.Connection, error)
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string) *Publisher {
    return &Publisher{url: url, dial: amqp.Dial}
}

// PublishSeatingSaved publishes ev to the seating.saved queue.
func (p *Publisher) PublishSeatingSaved(ctx context.Context, ev SeatingSavedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    conn, err := p.dial(p.url)
    if err != nil {
        return fmt.Errorf("rabbitmq dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("rabbitmq channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // durable so messages survive broker restarts
    if _, err := ch.QueueDeclare(SeatingSavedQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    uuid.NewString(),
        Timestamp:    time.Now().UTC(),
        Type:         SeatingSavedQueue,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", SeatingSavedQueue, false, false, pub); err != nil {
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}
