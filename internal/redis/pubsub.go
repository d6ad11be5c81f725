package redisclient

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// CaseChangesChannel carries one message per case write. Payload is the case id.
const CaseChangesChannel = "cases:changed"

// Publisher announces that a case changed. Subscribers must re-read full state.
type Publisher struct {
	client  *redis.Client
	channel string
}

func NewPublisher(client *redis.Client, channel string) *Publisher {
	if channel == "" {
		channel = CaseChangesChannel
	}
	return &Publisher{client: client, channel: channel}
}

func (p *Publisher) CaseChanged(ctx context.Context, caseID string) error {
	if p == nil || p.client == nil {
		return nil
	}
	if err := p.client.Publish(ctx, p.channel, caseID).Err(); err != nil {
		return fmt.Errorf("publish case change: %w", err)
	}
	return nil
}

// Subscribe calls fn for every message until ctx is done or the subscription closes.
func Subscribe(ctx context.Context, client *redis.Client, channel string, fn func(payload string)) error {
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			fn(msg.Payload)
		}
	}
}
