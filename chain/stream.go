package chain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"betfin/models"
)

// EventStream subscribes to the ledger's pushed events over a websocket.
// The ledger may deliver events out of order or more than once; the
// stream forwards them as-is and leaves de-duplication to the consumer.
type EventStream struct {
	url string
}

// NewEventStream creates a stream against the ledger's websocket endpoint.
func NewEventStream(url string) *EventStream {
	return &EventStream{url: url}
}

type wireEvent struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Account   string          `json:"account,omitempty"`
	Winner    string          `json:"winner,omitempty"`
	Payout    decimal.Decimal `json:"payout"`
	Cards     []string        `json:"cards,omitempty"`
}

// Subscribe opens the stream for one account and returns a channel of
// ledger events. The channel closes when ctx is cancelled. Connection
// drops are retried with a short backoff until then.
func (s *EventStream) Subscribe(ctx context.Context, account string) (<-chan models.LedgerEvent, error) {
	out := make(chan models.LedgerEvent, 16)

	go func() {
		defer close(out)
		for {
			if err := s.readLoop(ctx, account, out); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.WithError(err).Warn("Ledger event stream dropped, reconnecting")
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
	}()

	return out, nil
}

func (s *EventStream) readLoop(ctx context.Context, account string, out chan<- models.LedgerEvent) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url+"?account="+account, nil)
	if err != nil {
		return &models.NetworkError{Op: "event stream dial", Err: err}
	}
	defer conn.Close()

	// Unblock the read when the context is cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var raw wireEvent
		if err := json.Unmarshal(data, &raw); err != nil {
			log.WithError(err).Debug("Skipping malformed ledger event")
			continue
		}

		event, ok := decodeEvent(raw)
		if !ok {
			continue
		}

		select {
		case out <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func decodeEvent(raw wireEvent) (models.LedgerEvent, bool) {
	var eventType models.LedgerEventType
	switch raw.Type {
	case "session_started":
		eventType = models.EventSessionStarted
	case "action_taken":
		eventType = models.EventActionTaken
	case "cards_dealt":
		eventType = models.EventCardsDealt
	case "session_completed":
		eventType = models.EventSessionCompleted
	default:
		return models.LedgerEvent{}, false
	}

	return models.LedgerEvent{
		Type:      eventType,
		SessionID: raw.SessionID,
		Account:   raw.Account,
		Winner:    raw.Winner,
		Payout:    raw.Payout,
		Cards:     parseTokens(raw.Cards),
	}, true
}
