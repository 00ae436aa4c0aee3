package domain

import "time"

// ─── Ledger Types ───────────────────────────────────────────────────────────

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	EntryIncoming    EntryKind = "incoming"
	EntryNegotiation EntryKind = "negotiation"
)

// Distribution records one payout attempt to one recipient. Its presence
// records an attempt, not necessarily success: TxReference is set on
// success, Error on failure.
type Distribution struct {
	TxReference  string    `json:"tx_reference,omitempty"`
	PayeeAddress string    `json:"payee_address"`
	PayeeName    string    `json:"payee_name"`
	Amount       int64     `json:"amount"`
	CreatedAt    time.Time `json:"created_at"`
	Error        string    `json:"error,omitempty"`
}

// Succeeded reports whether the payout attempt went through.
func (d Distribution) Succeeded() bool { return d.Error == "" && d.TxReference != "" }

// LedgerEntry is a single row in the append-only settlement ledger.
// Once created, only the Distributions list may grow.
type LedgerEntry struct {
	ID            int64          `json:"id"`
	Kind          EntryKind      `json:"kind"`
	TxReference   string         `json:"tx_reference"`
	Payer         string         `json:"payer"`
	Amount        int64          `json:"amount"`
	OperationID   string         `json:"operation_id"`
	Verified      bool           `json:"verified"`
	CreatedAt     time.Time      `json:"created_at"`
	Distributions []Distribution `json:"distributions"`
}

// DistributedTotal sums the amounts of successful distributions.
func (e LedgerEntry) DistributedTotal() int64 {
	var total int64
	for _, d := range e.Distributions {
		if d.Succeeded() {
			total += d.Amount
		}
	}
	return total
}

// Summary holds running totals folded over all ledger entries using
// integer arithmetic only.
type Summary struct {
	TotalPayments    int           `json:"total_payments"`
	TotalIncoming    int64         `json:"total_incoming"`
	TotalDistributed int64         `json:"total_distributed"`
	OperatorBalance  int64         `json:"operator_balance"`
	Entries          []LedgerEntry `json:"entries"`
}
