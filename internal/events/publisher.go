package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// streamMaxLen bounds each stream. Consumers only need recent history: the
// identity service replays ledger events to keep cached account counts, and a
// cache miss recounts from PostgreSQL anyway.
const streamMaxLen = 10000

// Publisher appends identity and ledger events to their Redis streams.
// Publishing happens after the owning database transaction has committed, so
// a failed publish never undoes a write; callers log it and move on.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	payload, err := encodeEvent(eventType, time.Now().UTC(), data)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{"event": payload},
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", eventType, stream, err)
	}
	return nil
}

// encodeEvent produces the "event" field value that decodeMessage reads back.
func encodeEvent(eventType string, at time.Time, data any) (string, error) {
	b, err := json.Marshal(Event{Type: eventType, Timestamp: at, Data: data})
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return string(b), nil
}

// Decode re-reads the loosely typed Data of a received event into out, e.g.
// an AccountDeletedEvent for the identity service's account count.
func Decode(event Event, out any) error {
	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event data: %w", event.Type, err)
	}
	if err := json.Unmarshal(dataBytes, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s event: %w", event.Type, err)
	}
	return nil
}
