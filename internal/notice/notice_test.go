package notice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	a, cancelA := bus.Subscribe(1)
	b, cancelB := bus.Subscribe(1)
	defer cancelB()

	bus.Publish(New(Success, "Configuration saved successfully!"))
	got := <-a
	assert.Equal(t, Success, got.Severity)
	assert.Equal(t, DefaultTTL, got.TTL)
	assert.False(t, got.At.IsZero())
	assert.Equal(t, got, <-b)

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open)
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Publish(New(Info, "one"))
	bus.Publish(New(Error, "two"))
	assert.Equal(t, "one", (<-ch).Message)

	last, ok := bus.Last()
	require.True(t, ok)
	assert.Equal(t, "two", last.Message)
	assert.Zero(t, last.TTL)
}
