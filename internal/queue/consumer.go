package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/user-auth-service/internal/logging"
)

// StartAuditConsumer connects to RabbitMQ, declares the audit queues
// (durable) and appends one line per event to out. It reconnects with
// exponential backoff until ctx is cancelled, then returns ctx.Err().
func StartAuditConsumer(ctx context.Context, url string, out io.Writer, log logging.Logger) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warn(ctx, "audit-consumer: dial failed", "error", err, "retry_in", backoff)
            select {
            case <-ctx.Done():
                return ctx.Err()
            case <-time.After(backoff):
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, out, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn(ctx, "audit-consumer: consume loop ended, reconnecting", "error", err)
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(2 * time.Second):
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, out io.Writer, log logging.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warn(ctx, "audit-consumer: set QoS failed", "error", err)
    }

    var streams []<-chan amqp.Delivery
    for _, q := range []string{UserRegisteredQueue, LoginQueue} {
        if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", q, err)
        }
        msgs, err := ch.Consume(q, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", q, err)
        }
        streams = append(streams, msgs)
    }

    registered, logins := streams[0], streams[1]
    for {
        var (
            d  amqp.Delivery
            ok bool
        )
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok = <-registered:
        case d, ok = <-logins:
        }
        if !ok {
            return errors.New("deliveries channel closed")
        }
        if err := HandleAuditMessage(d.RoutingKey, d.Body, out); err != nil {
            log.Error(ctx, "audit-consumer: handle message failed", "queue", d.RoutingKey, "error", err)
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
}

// HandleAuditMessage decodes one message from queue and writes a single
// human-friendly line to out.
func HandleAuditMessage(queue string, body []byte, out io.Writer) error {
    var line string
    switch queue {
    case UserRegisteredQueue:
        var ev UserRegisteredEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        line = fmt.Sprintf("[%s] User registered | user_id=%d | name=%q | email=%q | role=%s\n",
            ev.RegisteredAt, ev.UserID, ev.Name, ev.Email, ev.Role)
    case LoginQueue:
        var ev LoginEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        outcome := "failed"
        if ev.Success {
            outcome = "succeeded"
        }
        line = fmt.Sprintf("[%s] Login %s | identifier=%q | user_id=%d\n", ev.At, outcome, ev.Identifier, ev.UserID)
    default:
        return fmt.Errorf("unknown queue %q", queue)
    }
    if _, err := io.WriteString(out, line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
