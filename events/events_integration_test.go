package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"betfin/models"
)

// TestEventDeliveryIntegration tests the complete event flow from TransactionalBus to main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan SessionCompletedEvent, 1)
	var wg sync.WaitGroup
	wg.Add(1)

	mainBus.Subscribe(EventTypeSessionCompleted, func(ctx context.Context, event Event) {
		defer wg.Done()
		if completed, ok := event.(SessionCompletedEvent); ok {
			select {
			case eventReceived <- completed:
			case <-time.After(1 * time.Second):
				t.Error("Timeout sending event to channel")
			}
		} else {
			t.Errorf("Expected SessionCompletedEvent, got %T", event)
		}
	})

	testEvent := SessionCompletedEvent{
		SessionID: "session-1",
		Account:   "0xabc",
		Game:      models.GameBlackjack,
		Result:    models.OutcomeWin,
		Wagered:   decimal.RequireFromString("0.01"),
		Winnings:  decimal.RequireFromString("0.02"),
	}

	// Publish to the transactional bus, then flush as a commit would
	transactionalBus.Publish(testEvent)
	err := transactionalBus.Flush(context.Background())
	assert.NoError(t, err)

	wg.Wait()

	select {
	case receivedEvent := <-eventReceived:
		assert.Equal(t, testEvent.SessionID, receivedEvent.SessionID)
		assert.Equal(t, testEvent.Account, receivedEvent.Account)
		assert.Equal(t, testEvent.Game, receivedEvent.Game)
		assert.Equal(t, testEvent.Result, receivedEvent.Result)
		assert.True(t, testEvent.Wagered.Equal(receivedEvent.Wagered))
		assert.True(t, testEvent.Winnings.Equal(receivedEvent.Winnings))
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event delivery")
	}
}

// TestTransactionalBusDiscard verifies rollback drops pending events
func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	delivered := make(chan Event, 1)
	mainBus.Subscribe(EventTypeAchievementUnlocked, func(ctx context.Context, event Event) {
		delivered <- event
	})

	transactionalBus.Publish(AchievementUnlockedEvent{Account: "0xabc", Name: "First Win"})
	transactionalBus.Discard()

	err := transactionalBus.Flush(context.Background())
	assert.NoError(t, err)

	select {
	case <-delivered:
		t.Fatal("Discarded event should not be delivered")
	case <-time.After(200 * time.Millisecond):
	}
}
