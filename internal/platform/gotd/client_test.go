package gotd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClient_RunUntilDisconnected_NeverConnected(t *testing.T) {
	c := &client{}

	// Without a live run loop there is nothing to wait on.
	err := c.RunUntilDisconnected(context.Background())

	assert.ErrorIs(t, err, errConnectionClosed)
}

func TestClient_RunUntilDisconnected_ObservesConnectionDeath(t *testing.T) {
	c := &client{dead: make(chan struct{})}

	returned := make(chan error, 1)
	go func() {
		returned <- c.RunUntilDisconnected(context.Background())
	}()

	select {
	case err := <-returned:
		t.Fatalf("returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	// The run loop ending must unblock the waiter even though the
	// caller's context is still live.
	close(c.dead)

	select {
	case err := <-returned:
		assert.ErrorIs(t, err, errConnectionClosed)
	case <-time.After(time.Second):
		t.Fatal("did not observe connection death")
	}

	assert.False(t, c.Connected())
}

func TestClient_RunUntilDisconnected_ContextCancel(t *testing.T) {
	c := &client{dead: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.RunUntilDisconnected(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	// The run loop itself is still live.
	assert.True(t, c.Connected())
}

func TestClient_Disconnect_Idempotent(t *testing.T) {
	c := &client{}

	assert.NoError(t, c.Disconnect())
	assert.NoError(t, c.Disconnect())
	assert.False(t, c.Connected())
}
