package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tollgate-network/tollgate/internal/app/distributor"
	"github.com/tollgate-network/tollgate/internal/app/executor"
	"github.com/tollgate-network/tollgate/internal/app/verifier"
	"github.com/tollgate-network/tollgate/internal/domain"
	"github.com/tollgate-network/tollgate/internal/infra/sqlite"
	"github.com/tollgate-network/tollgate/internal/infra/yield"
)

// ─── Stub Chain ─────────────────────────────────────────────────────────────

type stubChain struct {
	payouts int
}

func (s *stubChain) LookupTransaction(ctx context.Context, txID string) (*domain.TransactionRecord, error) {
	return nil, fmt.Errorf("tx %s: %w", txID, domain.ErrNotFound)
}

func (s *stubChain) LookupBalance(ctx context.Context, address string) (int64, error) {
	return 0, nil
}

func (s *stubChain) SubmitSigned(ctx context.Context, rawTx []byte) (*domain.TransactionRecord, error) {
	if string(rawTx) == "reject-me" {
		return nil, fmt.Errorf("bad signature: %w", domain.ErrSettlementRejected)
	}
	return &domain.TransactionRecord{TxID: "settled-1", From: "alice", Amount: 5000}, nil
}

func (s *stubChain) SignAndBroadcast(ctx context.Context, recipient string, amount int64, memo string) (string, error) {
	s.payouts++
	return fmt.Sprintf("payout-%d", s.payouts), nil
}

// ─── Fixture ────────────────────────────────────────────────────────────────

type fixture struct {
	gw    *Gateway
	store *sqlite.Store
	exec  *executor.Executor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	chain := &stubChain{}
	acct := yield.New(0)
	v := verifier.New(chain, chain, acct)
	d := distributor.New(chain, store)
	exec := executor.New(executor.DefaultConfig())
	exec.Register("audit", executor.EchoBackend{})

	gw := New(Config{OperatorAddress: "op-addr", OperatorFeePercent: 40, TimeoutSeconds: 300}, v, d, store, exec)
	if err := gw.Register(Resource{
		Name:        "audit",
		Description: "contract audit",
		Options:     []domain.PriceOption{{AssetID: "usdc", Amount: 5000}},
		Recipients: []domain.RecipientShare{
			{Name: "A", Address: "addr-a", SharePercent: 50},
			{Name: "B", Address: "addr-b", SharePercent: 50},
		},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	return &fixture{gw: gw, store: store, exec: exec}
}

func proofHeader(t *testing.T, p domain.PaymentProof) string {
	t.Helper()
	h, err := domain.EncodeProof(p)
	if err != nil {
		t.Fatalf("encode proof: %v", err)
	}
	return h
}

// ─── Tests ──────────────────────────────────────────────────────────────────

func TestRequirement(t *testing.T) {
	f := newFixture(t)
	req, err := f.gw.Requirement("audit")
	if err != nil {
		t.Fatalf("Requirement: %v", err)
	}
	if req.ResourcePath != "/resources/audit/execute" {
		t.Errorf("path = %q", req.ResourcePath)
	}
	if len(req.Accepts) != 1 || req.Accepts[0].Amount != 5000 {
		t.Errorf("accepts = %+v", req.Accepts)
	}
}

func TestRequirement_Unknown(t *testing.T) {
	f := newFixture(t)
	if _, err := f.gw.Requirement("nope"); !errors.Is(err, domain.ErrUnknownResource) {
		t.Errorf("err = %v, want ErrUnknownResource", err)
	}
}

func TestExecute_FullFlow(t *testing.T) {
	f := newFixture(t)

	header := proofHeader(t, domain.PaymentProof{Kind: domain.ProofSignedTransfer, RawTransaction: []byte("signed")})
	res, err := f.gw.Execute(context.Background(), "audit", header, []byte(`{"contract":"0xabc"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !res.Success {
		t.Errorf("success = false, error = %q", res.Error)
	}
	if !res.Payment.Verified || res.Payment.Payer != "alice" {
		t.Errorf("payment = %+v", res.Payment)
	}
	if len(res.Distributions) != 2 {
		t.Fatalf("distributions = %d, want 2", len(res.Distributions))
	}
	// fee 40% of 5000 = 2000; A and B split the remaining 3000.
	var sum int64
	for _, d := range res.Distributions {
		sum += d.Amount
	}
	if sum != 3000 {
		t.Errorf("distributed = %d, want 3000", sum)
	}

	entry, err := f.store.Entry(res.LedgerEntryID)
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if entry.Amount != 5000 || len(entry.Distributions) != 2 {
		t.Errorf("ledger entry = %+v", entry)
	}

	sum2 := f.store.Summary()
	if sum2.OperatorBalance != 2000 {
		t.Errorf("operator balance = %d, want 2000", sum2.OperatorBalance)
	}
}

func TestExecute_UnverifiedProofStillBooked(t *testing.T) {
	f := newFixture(t)

	// stubChain's lookup always reports not-found, so a direct reference
	// degrades to an accepted-but-unverified payment.
	header := proofHeader(t, domain.PaymentProof{Kind: domain.ProofDirectReference, TxID: "tx-unknown"})
	res, err := f.gw.Execute(context.Background(), "audit", header, []byte(`{}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Payment.Verified {
		t.Error("payment should be unverified")
	}
	if res.Payment.Payer != domain.PayerUnverified {
		t.Errorf("payer = %q, want sentinel", res.Payment.Payer)
	}

	// The unverified flag must survive into the ledger.
	entry, _ := f.store.Entry(res.LedgerEntryID)
	if entry.Verified {
		t.Error("ledger entry should carry verified=false")
	}
}

func TestExecute_SettlementRejectedLeavesNoEntry(t *testing.T) {
	f := newFixture(t)

	header := proofHeader(t, domain.PaymentProof{Kind: domain.ProofSignedTransfer, RawTransaction: []byte("reject-me")})
	_, err := f.gw.Execute(context.Background(), "audit", header, nil)
	if !errors.Is(err, domain.ErrSettlementRejected) {
		t.Fatalf("err = %v, want ErrSettlementRejected", err)
	}
	if got := len(f.store.Entries()); got != 0 {
		t.Errorf("ledger entries = %d, want 0 (rejected proof leaves no entry)", got)
	}
}

func TestExecute_MalformedProofLeavesNoEntry(t *testing.T) {
	f := newFixture(t)
	_, err := f.gw.Execute(context.Background(), "audit", "not-a-proof", nil)
	if !errors.Is(err, domain.ErrProofInvalid) {
		t.Fatalf("err = %v, want ErrProofInvalid", err)
	}
	if got := len(f.store.Entries()); got != 0 {
		t.Errorf("ledger entries = %d, want 0", got)
	}
}

func TestExecute_OperationFailureKeepsPaymentAndDistributes(t *testing.T) {
	f := newFixture(t)
	// Re-register the operation with a backend that always fails.
	f.exec.Register("audit", failingBackend{})

	header := proofHeader(t, domain.PaymentProof{Kind: domain.ProofSignedTransfer, RawTransaction: []byte("signed")})
	res, err := f.gw.Execute(context.Background(), "audit", header, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Success {
		t.Error("success should be false")
	}
	if res.Error == "" {
		t.Error("operation error should be reported")
	}
	// Payment stands and revenue is still split.
	if got := len(f.store.Entries()); got != 1 {
		t.Fatalf("ledger entries = %d, want 1", got)
	}
	if len(res.Distributions) != 2 {
		t.Errorf("distributions = %d, want 2", len(res.Distributions))
	}
}

type failingBackend struct{}

func (failingBackend) Execute(ctx context.Context, input []byte) ([]byte, error) {
	return nil, errors.New("auditor crashed")
}

func TestExecute_UnknownResource(t *testing.T) {
	f := newFixture(t)
	_, err := f.gw.Execute(context.Background(), "nope", "x", nil)
	if !errors.Is(err, domain.ErrUnknownResource) {
		t.Errorf("err = %v, want ErrUnknownResource", err)
	}
}
