package events

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"betfin/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeSessionUpdated      EventType = "session_updated"
	EventTypeSessionCompleted    EventType = "session_completed"
	EventTypeActionConfirmed     EventType = "action_confirmed"
	EventTypeStatsRecorded       EventType = "stats_recorded"
	EventTypeAchievementUnlocked EventType = "achievement_unlocked"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// SessionUpdatedEvent fires after a reconciliation pass merged a fresh
// snapshot into a session.
type SessionUpdatedEvent struct {
	SessionID string
	Account   string
	Game      models.GameKind
	State     models.SessionState
}

func (e SessionUpdatedEvent) Type() EventType {
	return EventTypeSessionUpdated
}

// SessionCompletedEvent fires once per session, on the transition into
// the Completed state.
type SessionCompletedEvent struct {
	SessionID string
	Account   string
	Game      models.GameKind
	Result    models.Outcome
	Wagered   decimal.Decimal
	Winnings  decimal.Decimal
}

func (e SessionCompletedEvent) Type() EventType {
	return EventTypeSessionCompleted
}

// ActionConfirmedEvent fires when a submitted action is confirmed by the
// ledger.
type ActionConfirmedEvent struct {
	SessionID string
	Account   string
	Action    models.ActionKind
	TxHash    string
}

func (e ActionConfirmedEvent) Type() EventType {
	return EventTypeActionConfirmed
}

// StatsRecordedEvent fires after a completed game was written to the
// stats ledger.
type StatsRecordedEvent struct {
	Account    string
	Game       models.GameKind
	Result     models.Outcome
	TotalGames int
	NetProfit  decimal.Decimal
}

func (e StatsRecordedEvent) Type() EventType {
	return EventTypeStatsRecorded
}

// AchievementUnlockedEvent fires once per newly unlocked achievement.
type AchievementUnlockedEvent struct {
	Account     string
	Name        string
	Description string
	Icon        string
}

func (e AchievementUnlockedEvent) Type() EventType {
	return EventTypeAchievementUnlocked
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

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking the emitter
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus stashes events alongside a unit of work and flushes
// them to the underlying bus only after the database commit succeeds.
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

// Flush is called after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Events outlive the transaction context that produced them
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
