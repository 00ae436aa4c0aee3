// Package gateway sequences a paid call end to end: serve the payment
// requirement, verify the proof, book the incoming payment, run the priced
// operation, and split the revenue.
//
// Data flows one way per request: proof → verifier → ledger → distributor.
// The orchestrator never suppresses a partial payout failure — every
// attempt travels back to the payer in the response.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tollgate-network/tollgate/internal/app/distributor"
	"github.com/tollgate-network/tollgate/internal/app/verifier"
	"github.com/tollgate-network/tollgate/internal/domain"
	"github.com/tollgate-network/tollgate/internal/infra/observability"
	"github.com/tollgate-network/tollgate/internal/infra/sqlite"
)

// Resource is one priced operation exposed by the gateway.
type Resource struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Options     []domain.PriceOption    `json:"-"`
	Recipients  []domain.RecipientShare `json:"-"`
}

// Path returns the resource's execute endpoint path.
func (r Resource) Path() string { return "/resources/" + r.Name + "/execute" }

// Config holds the operator-side settings every requirement shares.
type Config struct {
	OperatorAddress    string
	OperatorFeePercent int64
	TimeoutSeconds     int64 // MaxTimeoutSeconds advertised per asset option
}

// Gateway is the orchestrator.
type Gateway struct {
	cfg         Config
	mu          sync.RWMutex
	resources   map[string]Resource
	order       []string
	verifier    *verifier.Verifier
	distributor *distributor.Distributor
	ledger      *sqlite.Store
	executor    domain.OperationExecutor
}

// New creates a gateway.
func New(cfg Config, v *verifier.Verifier, d *distributor.Distributor, ledger *sqlite.Store, exec domain.OperationExecutor) *Gateway {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 300
	}
	return &Gateway{
		cfg:         cfg,
		resources:   make(map[string]Resource),
		verifier:    v,
		distributor: d,
		ledger:      ledger,
		executor:    exec,
	}
}

// Register adds a priced resource. The price options and recipient shares
// are validated up front so a bad config fails at boot, not per request.
func (g *Gateway) Register(res Resource) error {
	if _, err := domain.BuildRequirement(res.Path(), res.Description, g.cfg.OperatorAddress, g.cfg.TimeoutSeconds, res.Options); err != nil {
		return err
	}
	for _, r := range res.Recipients {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("resource %s: %w", res.Name, err)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.resources[res.Name]; !exists {
		g.order = append(g.order, res.Name)
	}
	g.resources[res.Name] = res
	return nil
}

// Resources lists registered resources in registration order.
func (g *Gateway) Resources() []Resource {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Resource, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.resources[name])
	}
	return out
}

// Requirement builds the 402 payload for a resource.
func (g *Gateway) Requirement(name string) (domain.PaymentRequirement, error) {
	g.mu.RLock()
	res, ok := g.resources[name]
	g.mu.RUnlock()
	if !ok {
		return domain.PaymentRequirement{}, fmt.Errorf("resource %s: %w", name, domain.ErrUnknownResource)
	}
	return domain.BuildRequirement(res.Path(), res.Description, g.cfg.OperatorAddress, g.cfg.TimeoutSeconds, res.Options)
}

// Result is the full outcome of a paid call.
type Result struct {
	Success       bool                  `json:"success"`
	Output        json.RawMessage       `json:"output,omitempty"`
	Error         string                `json:"error,omitempty"`
	Payment       domain.Payment        `json:"payment"`
	LedgerEntryID int64                 `json:"ledger_entry_id"`
	Distributions []domain.Distribution `json:"distributions"`
}

// Execute runs the full paid-call sequence for a resource.
//
// Verification failures return an error and leave no ledger entry. Once a
// payment is accepted it is booked and distributed even when the priced
// operation itself fails — that failure comes back as success:false, never
// as a payment failure.
func (g *Gateway) Execute(ctx context.Context, name, proofHeader string, input []byte) (*Result, error) {
	g.mu.RLock()
	res, ok := g.resources[name]
	g.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("resource %s: %w", name, domain.ErrUnknownResource)
	}

	proof, err := domain.DecodeProof(proofHeader)
	if err != nil {
		observability.PaymentsRejected.WithLabelValues("proof_invalid").Inc()
		return nil, err
	}

	expected := g.expectedOption(res)
	payment, err := g.verifier.Verify(ctx, proof, expected.Amount, expected.AssetID)
	if err != nil {
		observability.PaymentsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	status := "verified"
	if !payment.Verified {
		status = "unverified"
	}
	observability.PaymentsAccepted.WithLabelValues(string(payment.ProofKind), status).Inc()
	observability.PaymentAmount.Observe(float64(payment.Amount))

	entry := g.ledger.RecordIncoming(payment.TxReference, payment.Payer, payment.Amount, res.Name, payment.Verified)

	result := &Result{Payment: payment, LedgerEntryID: entry.ID}

	output, execErr := g.executor.Execute(ctx, res.Name, input)
	if execErr != nil {
		observability.OperationRuns.WithLabelValues(res.Name, "error").Inc()
		result.Error = execErr.Error()
	} else {
		observability.OperationRuns.WithLabelValues(res.Name, "ok").Inc()
		result.Success = true
		result.Output = rawOrQuoted(output)
	}

	// Revenue is split whether or not the operation succeeded — the
	// payment is final and the ledger entry stands either way.
	dists, derr := g.distributor.Distribute(ctx, entry.ID, payment.Amount, res.Recipients, g.cfg.OperatorFeePercent)
	if derr != nil {
		return nil, derr
	}
	result.Distributions = dists
	return result, nil
}

// expectedOption picks the price option a proof is judged against. The
// first listed option is the canonical price; a multi-asset requirement
// lists alternatives at equivalent value.
func (g *Gateway) expectedOption(res Resource) domain.PriceOption {
	return res.Options[0]
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrSettlementRejected):
		return "settlement_rejected"
	case errors.Is(err, domain.ErrYieldDebitUnknown):
		return "yield_debit_unknown"
	default:
		return "proof_invalid"
	}
}

// rawOrQuoted passes JSON output through untouched and quotes anything
// else so the response body stays valid JSON.
func rawOrQuoted(output []byte) json.RawMessage {
	if json.Valid(output) && len(output) > 0 {
		return json.RawMessage(output)
	}
	quoted, _ := json.Marshal(string(output))
	return json.RawMessage(quoted)
}
