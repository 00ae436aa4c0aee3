package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Proof errors
	ErrProofInvalid       = errors.New("payment proof is malformed")
	ErrSettlementRejected = errors.New("settlement collaborator rejected the transfer")
	ErrYieldDebitUnknown  = errors.New("no matching yield debit for token")

	// Requirement errors
	ErrNoPriceOptions = errors.New("payment requirement needs at least one price option")
	ErrInvalidAmount  = errors.New("amount must be a positive integer of the smallest unit")
	ErrInvalidShare   = errors.New("share percent must be between 0 and 100")

	// Execution errors
	ErrUnknownResource = errors.New("no priced resource registered under that path")
	ErrOperationFailed = errors.New("priced operation failed after payment was accepted")

	// Yield errors
	ErrInsufficientYield = errors.New("yield balance insufficient")

	// Bounty errors
	ErrBountyNotOpen       = errors.New("bounty is not open")
	ErrAuthorizationDenied = errors.New("only the original poster may update a bounty")

	// Lookup errors
	ErrNotFound = errors.New("not found")
)
