// Package distributor splits a verified incoming payment among recipient
// shares and drives the payout attempts.
//
// All arithmetic is integer, on the smallest currency unit. Rounding
// losses only ever favor the operator: the sum of attempted payouts never
// exceeds the distributable remainder, which never exceeds the incoming
// total.
package distributor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tollgate-network/tollgate/internal/domain"
	"github.com/tollgate-network/tollgate/internal/infra/observability"
)

// Ledger records payout attempts against an existing entry.
type Ledger interface {
	RecordDistribution(entryID int64, d domain.Distribution) error
}

// Distributor drives transfers through the broadcast collaborator and
// books every attempt — success and failure alike — into the ledger.
type Distributor struct {
	broadcaster domain.Broadcaster
	ledger      Ledger
}

// New creates a distributor.
func New(broadcaster domain.Broadcaster, ledger Ledger) *Distributor {
	return &Distributor{broadcaster: broadcaster, ledger: ledger}
}

// Distribute splits totalAmount among recipients after retaining the
// operator fee, attempting one transfer per non-skipped recipient.
//
// Each attempt is independent: one failed payout neither blocks nor rolls
// back its siblings, and no retry happens here — retries are a
// higher-level policy over the returned failures. The returned slice
// contains every attempted distribution so the caller can surface partial
// failure; it must never be suppressed.
func (d *Distributor) Distribute(ctx context.Context, entryID int64, totalAmount int64, recipients []domain.RecipientShare, operatorFeePercent int64) ([]domain.Distribution, error) {
	if totalAmount <= 0 {
		return nil, fmt.Errorf("total %d: %w", totalAmount, domain.ErrInvalidAmount)
	}
	if operatorFeePercent < 0 || operatorFeePercent > 100 {
		return nil, fmt.Errorf("operator fee %d%%: %w", operatorFeePercent, domain.ErrInvalidShare)
	}
	for _, r := range recipients {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}

	fee := totalAmount * operatorFeePercent / 100
	distributable := totalAmount - fee

	// Once payouts start they run to completion even if the paying
	// client disconnects; every attempt must be recorded.
	ctx = context.WithoutCancel(ctx)

	var attempts []domain.Distribution
	for _, r := range recipients {
		share := distributable * r.SharePercent / 100
		if r.Address == "" || share <= 0 {
			continue
		}

		dist := domain.Distribution{
			PayeeAddress: r.Address,
			PayeeName:    r.Name,
			Amount:       share,
			CreatedAt:    time.Now().UTC(),
		}
		memo := fmt.Sprintf("revenue share, ledger entry %d", entryID)
		txRef, err := d.broadcaster.SignAndBroadcast(ctx, r.Address, share, memo)
		if err != nil {
			dist.Error = err.Error()
			observability.DistributionAttempts.WithLabelValues("error").Inc()
			log.Printf("distributor: payout of %d to %s (%s) failed: %v", share, r.Name, r.Address, err)
		} else {
			dist.TxReference = txRef
			observability.DistributionAttempts.WithLabelValues("ok").Inc()
			observability.DistributedUnits.Add(float64(share))
		}

		if err := d.ledger.RecordDistribution(entryID, dist); err != nil {
			// The attempt itself stands; the ledger miss is its own problem.
			log.Printf("distributor: record attempt for entry %d failed: %v", entryID, err)
		}
		attempts = append(attempts, dist)
	}
	return attempts, nil
}

// Fee returns the operator's cut of a total, floored integer arithmetic.
func Fee(totalAmount, operatorFeePercent int64) int64 {
	return totalAmount * operatorFeePercent / 100
}
