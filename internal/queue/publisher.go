package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends audit events. Implementations must be safe for concurrent use.
type Publisher interface {
    Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops every event. Used when auditing is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// AMQPPublisher publishes JSON events to a durable queue named after the
// event. The connection is opened lazily and re-dialled after failures.
type AMQPPublisher struct {
    url string

    mu       sync.Mutex
    conn     *amqp.Connection
    ch       *amqp.Channel
    declared map[string]bool
}

func NewAMQPPublisher(url string) *AMQPPublisher {
    return &AMQPPublisher{url: url, declared: make(map[string]bool)}
}

// channel returns an open channel, dialling when needed. Caller holds mu.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    if p.conn == nil || p.conn.IsClosed() {
        conn, err := amqp.Dial(p.url)
        if err != nil {
            return nil, fmt.Errorf("rabbitmq: dial: %w", err)
        }
        p.conn = conn
    }
    ch, err := p.conn.Channel()
    if err != nil {
        return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
    }
    p.ch = ch
    p.declared = make(map[string]bool)
    return ch, nil
}

// Publish marshals ev and sends it as a persistent message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("rabbitmq: marshal event: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        return err
    }
    name := ev.EventName()
    if !p.declared[name] {
        // Durable so messages survive broker restarts.
        if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
            p.ch = nil
            return fmt.Errorf("rabbitmq: queue declare: %w", err)
        }
        p.declared[name] = true
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", name, false, false, pub); err != nil {
        p.ch = nil
        return fmt.Errorf("rabbitmq: publish: %w", err)
    }
    return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        err := p.conn.Close()
        p.conn = nil
        return err
    }
    return nil
}
