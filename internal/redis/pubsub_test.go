package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	_, client := setupTestRedis(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- Subscribe(ctx, client, CaseChangesChannel, func(payload string) {
			got <- payload
		})
	}()

	pub := NewPublisher(client, "")
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, CaseChangesChannel).Result()
		return err == nil && n[CaseChangesChannel] == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, pub.CaseChanged(ctx, "case-1"))

	select {
	case payload := <-got:
		require.Equal(t, "case-1", payload)
	case <-time.After(time.Second):
		t.Fatal("expected a notification")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not stop")
	}
}

func TestNilPublisherIsNoop(t *testing.T) {
	var p *Publisher
	require.NoError(t, p.CaseChanged(context.Background(), "x"))
}
