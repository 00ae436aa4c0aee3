// Package verifier turns an inbound payment proof into a normalized,
// authorized Payment.
//
// Verification is read-only except the broadcast a SignedTransfer proof
// itself requests — no proof kind ever causes a second on-chain mutation.
package verifier

import (
	"context"
	"fmt"
	"log"

	"github.com/tollgate-network/tollgate/internal/domain"
)

// YieldDebits exposes the yield account's prior-debit lookup. The verifier
// never re-debits — the spend that minted the token already enforced
// sufficiency.
type YieldDebits interface {
	Debited(reference string) (int64, bool)
}

// Verifier validates the three proof kinds against the external chain
// collaborators and the yield account.
type Verifier struct {
	reader      domain.ChainReader
	broadcaster domain.Broadcaster
	debits      YieldDebits
}

// New creates a verifier.
func New(reader domain.ChainReader, broadcaster domain.Broadcaster, debits YieldDebits) *Verifier {
	return &Verifier{reader: reader, broadcaster: broadcaster, debits: debits}
}

// Verify classifies and validates a proof, yielding a normalized Payment.
//
// SignedTransfer is settled (validated + broadcast) by the external node;
// rejection surfaces as ErrSettlementRejected and the caller re-offers the
// payment requirement. DirectReference degrades to an accepted-but-
// unverified payment when the external lookup fails — a deliberate
// availability/trust trade-off; the Verified flag travels end-to-end so
// downstream consumers can apply their own risk policy. YieldToken is
// accepted iff a matching prior debit exists.
func (v *Verifier) Verify(ctx context.Context, proof domain.PaymentProof, expectedAmount int64, assetID string) (domain.Payment, error) {
	switch proof.Kind {
	case domain.ProofSignedTransfer:
		return v.verifySignedTransfer(ctx, proof, expectedAmount, assetID)
	case domain.ProofDirectReference:
		return v.verifyDirectReference(ctx, proof, expectedAmount, assetID), nil
	case domain.ProofYieldToken:
		return v.verifyYieldToken(proof, expectedAmount, assetID)
	default:
		return domain.Payment{}, fmt.Errorf("%w: unknown proof kind %q", domain.ErrProofInvalid, proof.Kind)
	}
}

func (v *Verifier) verifySignedTransfer(ctx context.Context, proof domain.PaymentProof, expectedAmount int64, assetID string) (domain.Payment, error) {
	rec, err := v.broadcaster.SubmitSigned(ctx, proof.RawTransaction)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("settle signed transfer: %w", err)
	}
	if rec.Amount > 0 && rec.Amount < expectedAmount {
		return domain.Payment{}, fmt.Errorf("transfer %s pays %d of required %d: %w",
			rec.TxID, rec.Amount, expectedAmount, domain.ErrSettlementRejected)
	}
	return domain.Payment{
		ProofKind:   domain.ProofSignedTransfer,
		Payer:       rec.From,
		Amount:      expectedAmount,
		AssetID:     assetID,
		TxReference: rec.TxID,
		Verified:    true,
	}, nil
}

func (v *Verifier) verifyDirectReference(ctx context.Context, proof domain.PaymentProof, expectedAmount int64, assetID string) domain.Payment {
	rec, err := v.reader.LookupTransaction(ctx, proof.TxID)
	if err != nil {
		// Lookup failure — network error or not-yet-indexed — is accepted,
		// not rejected. Availability wins; the payment stays unverified.
		log.Printf("verifier: lookup of %s inconclusive, accepting unverified: %v", proof.TxID, err)
		return domain.Payment{
			ProofKind:   domain.ProofDirectReference,
			Payer:       domain.PayerUnverified,
			Amount:      expectedAmount,
			AssetID:     assetID,
			TxReference: proof.TxID,
			Verified:    false,
		}
	}
	return domain.Payment{
		ProofKind:   domain.ProofDirectReference,
		Payer:       rec.From,
		Amount:      expectedAmount,
		AssetID:     assetID,
		TxReference: proof.TxID,
		Verified:    true,
	}
}

func (v *Verifier) verifyYieldToken(proof domain.PaymentProof, expectedAmount int64, assetID string) (domain.Payment, error) {
	debited, ok := v.debits.Debited(proof.YieldReference)
	if !ok {
		return domain.Payment{}, fmt.Errorf("token %s: %w", proof.YieldReference, domain.ErrYieldDebitUnknown)
	}
	if debited < expectedAmount {
		return domain.Payment{}, fmt.Errorf("token %s debited %d of required %d: %w",
			proof.YieldReference, debited, expectedAmount, domain.ErrYieldDebitUnknown)
	}
	// The debit already happened; treated as verified, never re-debited.
	return domain.Payment{
		ProofKind:   domain.ProofYieldToken,
		Payer:       "yield-account",
		Amount:      expectedAmount,
		AssetID:     assetID,
		TxReference: proof.YieldReference,
		Verified:    true,
	}, nil
}
