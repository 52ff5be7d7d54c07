package sse

import (
	"context"
	"sync"

	"bom-tracker/internal/models"
)

// OrderEventEmitter fans order events out to the SSE connections of the
// order's owner.
type OrderEventEmitter struct {
	// key: userID, value: one channel per open connection
	clients     map[int64][]chan models.OrderEvent
	clientMutex sync.RWMutex
}

func NewOrderEventEmitter() *OrderEventEmitter {
	return &OrderEventEmitter{
		clients: make(map[int64][]chan models.OrderEvent),
	}
}

// Subscribe registers a connection for userID. The channel is closed once ctx
// is done.
func (e *OrderEventEmitter) Subscribe(ctx context.Context, userID int64) <-chan models.OrderEvent {
	clientChan := make(chan models.OrderEvent, 10)

	e.clientMutex.Lock()
	e.clients[userID] = append(e.clients[userID], clientChan)
	e.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeClient(userID, clientChan)
	}()

	return clientChan
}

// Emit delivers the event to every connection of its owner. Slow clients with
// a full buffer miss the event.
func (e *OrderEventEmitter) Emit(event models.OrderEvent) {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()

	for _, clientChan := range e.clients[event.UserID] {
		select {
		case clientChan <- event:
		default:
		}
	}
}

func (e *OrderEventEmitter) removeClient(userID int64, clientChan chan models.OrderEvent) {
	e.clientMutex.Lock()
	defer e.clientMutex.Unlock()

	clients := e.clients[userID]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[userID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.clients[userID]) == 0 {
		delete(e.clients, userID)
	}
}

// ClientCount returns the number of open connections for a user
func (e *OrderEventEmitter) ClientCount(userID int64) int {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()
	return len(e.clients[userID])
}
