package chain

import (
	"context"

	"betfin/models"
)

// Ledger combines the HTTP state gateway and the websocket event stream
// into one read surface.
type Ledger struct {
	*Client
	stream *EventStream
}

// NewLedger creates a ledger over an existing client and event stream
func NewLedger(client *Client, stream *EventStream) *Ledger {
	return &Ledger{Client: client, stream: stream}
}

// Subscribe opens the pushed event stream for an account
func (l *Ledger) Subscribe(ctx context.Context, account string) (<-chan models.LedgerEvent, error) {
	return l.stream.Subscribe(ctx, account)
}
