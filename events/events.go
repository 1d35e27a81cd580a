package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserCreated    EventType = "user_created"
	EventTypeUserRegistered EventType = "user_registered"
	EventTypeWagerPlaced    EventType = "wager_placed"
	EventTypeResultDeclared EventType = "result_declared"
	EventTypeBalanceChange  EventType = "balance_change"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// UserCreatedEvent represents a new user, guest or registered
type UserCreatedEvent struct {
	UserID        int64
	Username      string
	Registered    bool
	InitialPoints int64
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// UserRegisteredEvent represents a guest promoted to a registered account
type UserRegisteredEvent struct {
	UserID   int64
	Username string
	Points   int64
}

func (e UserRegisteredEvent) Type() EventType {
	return EventTypeUserRegistered
}

// WagerPlacedEvent represents a recorded participation
type WagerPlacedEvent struct {
	UserID    int64
	BetID     int64
	Option    string
	Amount    int64
	NewPoints int64
}

func (e WagerPlacedEvent) Type() EventType {
	return EventTypeWagerPlaced
}

// ResultDeclaredEvent represents a settled bet occurrence
type ResultDeclaredEvent struct {
	BetID         int64
	WinningOption string
	Winners       int
	PointsPaid    int64
}

func (e ResultDeclaredEvent) Type() EventType {
	return EventTypeResultDeclared
}

// BalanceChangeEvent represents any change to a user's points
type BalanceChangeEvent struct {
	UserID    int64
	OldPoints int64
	NewPoints int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit publishes an event to all registered handlers. Handlers run
// asynchronously and must not block the caller.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stashes events published during a unit of work and emits
// them on the real bus only after the database transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events; called after a successful commit. Events
// are emitted on a fresh context since the request context may be gone by
// the time handlers run.
func (b *TransactionalBus) Flush(ctx context.Context) {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events; called after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
