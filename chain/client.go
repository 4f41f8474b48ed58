package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"betfin/cards"
	"betfin/models"
)

// Client talks to the remote game ledger through its HTTP gateway. It
// implements the engine's WalletProvider and GameLedger interfaces; the
// gateway holds the actual signing key and network selection, the client
// only names the account it acts for.
type Client struct {
	baseURL string
	account string
	http    *http.Client

	// cadence for polling a submitted transaction until inclusion
	confirmPoll time.Duration
}

// NewClient creates a ledger gateway client for the given account.
func NewClient(baseURL, account string) *Client {
	return &Client{
		baseURL:     baseURL,
		account:     account,
		http:        &http.Client{Timeout: 15 * time.Second},
		confirmPoll: 2 * time.Second,
	}
}

// CurrentAccount returns the signing identity, if any.
func (c *Client) CurrentAccount() (string, bool) {
	return c.account, c.account != ""
}

type submitRequest struct {
	Account   string          `json:"account"`
	Game      string          `json:"game"`
	SessionID string          `json:"session_id,omitempty"`
	Action    string          `json:"action"`
	Amount    decimal.Decimal `json:"amount"`
}

type submitResponse struct {
	TxHash string `json:"tx_hash"`
}

// Submit signs and broadcasts one action, returning a receipt for the
// pending transaction.
func (c *Client) Submit(ctx context.Context, action models.Action) (*models.Receipt, error) {
	req := submitRequest{
		Account:   action.Account,
		Game:      string(action.Game),
		SessionID: action.SessionID,
		Action:    string(action.Kind),
		Amount:    action.Amount,
	}

	var resp submitResponse
	if err := c.post(ctx, "/v1/tx", req, &resp); err != nil {
		return nil, err
	}
	if resp.TxHash == "" {
		return nil, &models.NetworkError{Op: "submit", Err: fmt.Errorf("gateway returned empty tx hash")}
	}

	return &models.Receipt{TxHash: resp.TxHash, SubmittedAt: time.Now().UTC()}, nil
}

type txStatusResponse struct {
	Status      string `json:"status"` // pending, confirmed, reverted
	Reason      string `json:"reason,omitempty"`
	BlockNumber uint64 `json:"block_number,omitempty"`
}

// AwaitConfirmation polls the gateway until the transaction confirms or
// reverts. The caller bounds the wait through ctx.
func (c *Client) AwaitConfirmation(ctx context.Context, receipt *models.Receipt) (*models.Confirmation, error) {
	ticker := time.NewTicker(c.confirmPoll)
	defer ticker.Stop()

	for {
		var status txStatusResponse
		err := c.get(ctx, "/v1/tx/"+receipt.TxHash, &status)
		if err == nil {
			switch status.Status {
			case "confirmed":
				return &models.Confirmation{
					TxHash:      receipt.TxHash,
					BlockNumber: status.BlockNumber,
					ConfirmedAt: time.Now().UTC(),
				}, nil
			case "reverted":
				return nil, &models.RevertError{Reason: status.Reason}
			}
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// transient poll errors fall through to the next tick

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

type sessionStateResponse struct {
	SessionID string          `json:"session_id"`
	Account   string          `json:"account"`
	State     int             `json:"state"`
	BetAmount decimal.Decimal `json:"bet_amount"`

	Blackjack *blackjackStateResponse `json:"blackjack,omitempty"`
	Poker     *pokerStateResponse     `json:"poker,omitempty"`
	Slots     *slotsStateResponse     `json:"slots,omitempty"`
}

type blackjackStateResponse struct {
	PlayerTotal    int             `json:"player_total"`
	DealerTotal    int             `json:"dealer_total"`
	DealerRevealed bool            `json:"dealer_revealed"`
	PlayerCards    []string        `json:"player_cards"`
	DealerCards    []string        `json:"dealer_cards"`
	PlayerWon      bool            `json:"player_won"`
	Payout         decimal.Decimal `json:"payout"`
}

type pokerStateResponse struct {
	Players       []string        `json:"players"`
	Pot           decimal.Decimal `json:"pot"`
	CurrentBet    decimal.Decimal `json:"current_bet"`
	CurrentPlayer string          `json:"current_player"`
	Balance       decimal.Decimal `json:"balance"`
	HasFolded     bool            `json:"has_folded"`
	IsAllIn       bool            `json:"is_all_in"`
	Hand          []string        `json:"hand"`
	Community     []string        `json:"community"`
	Winner        string          `json:"winner,omitempty"`
	Prize         decimal.Decimal `json:"prize"`
}

type slotsStateResponse struct {
	Reels   [3]int          `json:"reels"`
	Payout  decimal.Decimal `json:"payout"`
	Jackpot decimal.Decimal `json:"jackpot"`
}

// GetSessionState fetches the public snapshot for a session. Single-table
// games (blackjack, slots) are addressed by account; poker by session id.
func (c *Client) GetSessionState(ctx context.Context, kind models.GameKind, sessionID, account string) (*models.SessionSnapshot, error) {
	path := fmt.Sprintf("/v1/%s/state?account=%s", kind, account)
	if sessionID != "" {
		path += "&session_id=" + sessionID
	}

	var resp sessionStateResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}

	snap := &models.SessionSnapshot{
		SessionID: resp.SessionID,
		Account:   resp.Account,
		Kind:      kind,
		State:     models.SessionState(resp.State),
		BetAmount: resp.BetAmount,
	}
	if resp.Blackjack != nil {
		snap.Blackjack = &models.BlackjackSnapshot{
			PlayerTotal:    resp.Blackjack.PlayerTotal,
			DealerTotal:    resp.Blackjack.DealerTotal,
			DealerRevealed: resp.Blackjack.DealerRevealed,
			PlayerCards:    parseTokens(resp.Blackjack.PlayerCards),
			DealerCards:    parseTokens(resp.Blackjack.DealerCards),
			PlayerWon:      resp.Blackjack.PlayerWon,
			Payout:         resp.Blackjack.Payout,
		}
	}
	if resp.Poker != nil {
		snap.Poker = &models.PokerSnapshot{
			Players:       resp.Poker.Players,
			Pot:           resp.Poker.Pot,
			CurrentBet:    resp.Poker.CurrentBet,
			CurrentPlayer: resp.Poker.CurrentPlayer,
			Balance:       resp.Poker.Balance,
			HasFolded:     resp.Poker.HasFolded,
			IsAllIn:       resp.Poker.IsAllIn,
			Hand:          parseTokens(resp.Poker.Hand),
			Community:     parseTokens(resp.Poker.Community),
			Winner:        resp.Poker.Winner,
			Prize:         resp.Poker.Prize,
		}
	}
	if resp.Slots != nil {
		snap.Slots = &models.SlotsSnapshot{
			Reels:   resp.Slots.Reels,
			Payout:  resp.Slots.Payout,
			Jackpot: resp.Slots.Jackpot,
		}
	}

	return snap, nil
}

func parseTokens(raw []string) []cards.Token {
	if len(raw) == 0 {
		return nil
	}
	tokens := make([]cards.Token, len(raw))
	for i, s := range raw {
		tokens[i] = cards.ParseToken(s)
	}
	return tokens
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	return c.do(req, path, out)
}

type gatewayError struct {
	Error  string `json:"error"`
	Revert bool   `json:"revert,omitempty"`
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &models.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode >= 400 {
		var gwErr gatewayError
		if json.Unmarshal(raw, &gwErr) == nil && gwErr.Revert {
			return &models.RevertError{Reason: gwErr.Error}
		}
		return &models.NetworkError{Op: op, Err: fmt.Errorf("gateway returned %d: %s", resp.StatusCode, raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &models.NetworkError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
