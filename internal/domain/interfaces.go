package domain

import "context"

// ─── Collaborator Interfaces ────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// TransactionRecord is an externally looked-up or freshly broadcast
// transfer as the settlement chain reports it.
type TransactionRecord struct {
	TxID      string `json:"tx_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    int64  `json:"amount"`
	AssetID   string `json:"asset_id"`
	Confirmed bool   `json:"confirmed"`
}

// ChainReader abstracts read access to the external settlement chain.
// Failures mean "unknown", never "invalid" — callers must not treat a
// lookup error as proof of absence.
type ChainReader interface {
	// LookupTransaction fetches a transaction by id.
	// Returns ErrNotFound when the chain has no such transaction.
	LookupTransaction(ctx context.Context, txID string) (*TransactionRecord, error)

	// LookupBalance returns the spendable balance of an address.
	LookupBalance(ctx context.Context, address string) (int64, error)
}

// Broadcaster abstracts transfer construction and broadcast.
type Broadcaster interface {
	// SubmitSigned validates and broadcasts a fully signed transfer.
	SubmitSigned(ctx context.Context, rawTx []byte) (*TransactionRecord, error)

	// SignAndBroadcast builds, signs, and broadcasts a transfer from the
	// operator's account. Returns the broadcast transaction reference.
	SignAndBroadcast(ctx context.Context, recipient string, amount int64, memo string) (string, error)
}

// OperationExecutor runs the priced operation once payment is accepted.
// Its failures are reported to the caller without being recorded as
// payment failures.
type OperationExecutor interface {
	Execute(ctx context.Context, operationID string, input []byte) ([]byte, error)
}
