// Package yield holds the gateway's internal yield account: a single
// non-negative balance of pre-accrued credit that can substitute for an
// on-chain payment proof.
//
// Accrue and Spend are the only mutations, and both run under one mutex so
// concurrent spends can never both observe sufficient balance and both
// subtract. Every mutation is logged and counted for auditability.
package yield

import (
	"log"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/tollgate-network/tollgate/internal/infra/observability"
)

// maxDebitHistory bounds the retained debit references. Old debits fall off
// oldest-first; a yield token must be redeemed reasonably promptly.
const maxDebitHistory = 1024

// SpendResult reports the outcome of a spend attempt. On failure the
// balance is unchanged and Needed echoes the requested amount.
type SpendResult struct {
	Success   bool   `json:"success"`
	Remaining int64  `json:"remaining"`
	Needed    int64  `json:"needed,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// Account is the process-wide yield balance with single-writer discipline.
type Account struct {
	mu      sync.Mutex
	balance int64
	debits  map[string]int64 // reference -> debited amount
	order   []string         // debit references, oldest first
}

// New creates an account with the given starting balance.
func New(initial int64) *Account {
	if initial < 0 {
		initial = 0
	}
	observability.YieldBalance.Set(float64(initial))
	return &Account{balance: initial, debits: make(map[string]int64)}
}

// Balance returns the current balance.
func (a *Account) Balance() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// Accrue adds amount to the balance and returns the new balance. A zero or
// negative amount accrues a small pseudo-random increment instead,
// simulating external reward accrual.
func (a *Account) Accrue(amount int64) int64 {
	if amount <= 0 {
		amount = 1 + rand.Int63n(100)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance += amount
	observability.YieldBalance.Set(float64(a.balance))
	observability.YieldMutations.WithLabelValues("accrue", "ok").Inc()
	log.Printf("yield: accrued %d, balance now %d", amount, a.balance)
	return a.balance
}

// Spend subtracts amount iff the balance is sufficient; otherwise the
// balance is unchanged and the result reports the shortfall. A successful
// spend records an opaque debit reference redeemable as a yield token.
func (a *Account) Spend(amount int64) SpendResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	if amount <= 0 || a.balance < amount {
		observability.YieldMutations.WithLabelValues("spend", "insufficient").Inc()
		log.Printf("yield: spend %d refused, balance %d", amount, a.balance)
		return SpendResult{Success: false, Remaining: a.balance, Needed: amount}
	}

	a.balance -= amount
	ref := uuid.NewString()
	a.debits[ref] = amount
	a.order = append(a.order, ref)
	if len(a.order) > maxDebitHistory {
		oldest := a.order[0]
		a.order = a.order[1:]
		delete(a.debits, oldest)
	}

	observability.YieldBalance.Set(float64(a.balance))
	observability.YieldMutations.WithLabelValues("spend", "ok").Inc()
	log.Printf("yield: spent %d (debit %s), balance now %d", amount, ref, a.balance)
	return SpendResult{Success: true, Remaining: a.balance, Reference: ref}
}

// Debited returns the amount of a prior successful spend, if the reference
// matches one. Used to honor yield-token proofs without re-debiting.
func (a *Account) Debited(reference string) (int64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	amount, ok := a.debits[reference]
	return amount, ok
}
