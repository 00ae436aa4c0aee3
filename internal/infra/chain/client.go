// Package chain is the HTTP client for the external settlement node: read
// access (transaction and balance lookups) plus transfer broadcast.
//
// Read failures are always "unknown", never "invalid" — a caller must not
// treat a lookup error as proof a transaction does not exist.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tollgate-network/tollgate/internal/domain"
)

// Client talks to a settlement-node REST API.
type Client struct {
	baseURL   string
	senderKey string
	client    *http.Client
}

// NewClient builds a chain client. senderKey is the operator's signing key
// reference, sent with operator-originated transfers.
func NewClient(baseURL, senderKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		senderKey: senderKey,
		client:    &http.Client{Timeout: timeout},
	}
}

// ─── ChainReader ────────────────────────────────────────────────────────────

// LookupTransaction fetches a transaction by id.
// Returns domain.ErrNotFound only on an authoritative 404.
func (c *Client) LookupTransaction(ctx context.Context, txID string) (*domain.TransactionRecord, error) {
	endpoint := fmt.Sprintf("%s/tx/%s", c.baseURL, url.PathEscape(txID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup tx %s: %w", txID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("tx %s: %w", txID, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup tx %s: unexpected status %s", txID, resp.Status)
	}

	var rec domain.TransactionRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("lookup tx %s: decode: %w", txID, err)
	}
	return &rec, nil
}

// LookupBalance returns the spendable balance of an address.
func (c *Client) LookupBalance(ctx context.Context, address string) (int64, error) {
	endpoint := fmt.Sprintf("%s/address/%s/balance", c.baseURL, url.PathEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("lookup balance %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("lookup balance %s: unexpected status %s", address, resp.Status)
	}
	var body struct {
		Balance int64 `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("lookup balance %s: decode: %w", address, err)
	}
	return body.Balance, nil
}

// ─── Broadcaster ────────────────────────────────────────────────────────────

// SubmitSigned hands a fully signed transfer to the node for validation
// and broadcast. A 4xx from the node means the transfer was rejected.
func (c *Client) SubmitSigned(ctx context.Context, rawTx []byte) (*domain.TransactionRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tx", bytes.NewReader(rawTx))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit signed transfer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, fmt.Errorf("node returned %s: %w", resp.Status, domain.ErrSettlementRejected)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("submit signed transfer: unexpected status %s", resp.Status)
	}

	var rec domain.TransactionRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("submit signed transfer: decode: %w", err)
	}
	return &rec, nil
}

// SignAndBroadcast builds, signs, and broadcasts a transfer from the
// operator's account, returning the broadcast transaction reference.
func (c *Client) SignAndBroadcast(ctx context.Context, recipient string, amount int64, memo string) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"recipient":  recipient,
		"amount":     amount,
		"memo":       memo,
		"sender_key": c.senderKey,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transfer", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("broadcast transfer to %s: %w", recipient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("broadcast transfer to %s: unexpected status %s", recipient, resp.Status)
	}
	var body struct {
		TxID string `json:"tx_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("broadcast transfer to %s: decode: %w", recipient, err)
	}
	if body.TxID == "" {
		return "", fmt.Errorf("broadcast transfer to %s: node returned no tx id", recipient)
	}
	return body.TxID, nil
}
