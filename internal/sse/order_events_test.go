package sse

import (
	"context"
	"testing"
	"time"

	"bom-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_OnlyReachesOwner(t *testing.T) {
	e := NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mine := e.Subscribe(ctx, 1)
	theirs := e.Subscribe(ctx, 2)

	e.Emit(models.OrderEvent{Type: models.OrderEventCreated, OrderID: 10, UserID: 1})

	select {
	case ev := <-mine:
		assert.Equal(t, int64(10), ev.OrderID)
	case <-time.After(time.Second):
		t.Fatal("owner did not receive event")
	}

	select {
	case <-theirs:
		t.Fatal("other user received event")
	default:
	}
}

func TestSubscribe_RemovedWhenContextDone(t *testing.T) {
	e := NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	ch := e.Subscribe(ctx, 5)
	assert.Equal(t, 1, e.ClientCount(5))

	cancel()
	require.Eventually(t, func() bool { return e.ClientCount(5) == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-ch
	assert.False(t, open)
}

func TestEmit_DropsWhenBufferFull(t *testing.T) {
	e := NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := e.Subscribe(ctx, 1)
	for i := 0; i < 25; i++ {
		e.Emit(models.OrderEvent{Type: models.OrderEventBomAppended, OrderID: int64(i + 1), UserID: 1})
	}
	assert.Len(t, ch, 10)
}
