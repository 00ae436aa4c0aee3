package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

// ─── Requirement Builder Tests ──────────────────────────────────────────────

func TestPaymentRequirement_JSONRoundTrip(t *testing.T) {
	req, err := BuildRequirement("/resources/audit/execute", "contract audit", "op-addr-1", 300, []PriceOption{
		{AssetID: "usdc", Amount: 5000},
		{AssetID: "sats", Amount: 12000},
	})
	if err != nil {
		t.Fatalf("BuildRequirement: %v", err)
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded PaymentRequirement
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(req, decoded) {
		t.Errorf("round trip lost data:\n got %+v\nwant %+v", decoded, req)
	}
}

func TestBuildRequirement_SingleAsset(t *testing.T) {
	req, err := BuildRequirement("/resources/audit/execute", "contract audit", "op-addr-1", 300, []PriceOption{
		{AssetID: "usdc", Amount: 5000},
	})
	if err != nil {
		t.Fatalf("BuildRequirement: %v", err)
	}
	if len(req.Accepts) != 1 {
		t.Fatalf("expected 1 accept option, got %d", len(req.Accepts))
	}
	opt := req.Accepts[0]
	if opt.Scheme != SchemeExact {
		t.Errorf("Scheme = %q, want %q", opt.Scheme, SchemeExact)
	}
	if opt.Amount != 5000 || opt.AssetID != "usdc" || opt.PayeeAddress != "op-addr-1" {
		t.Errorf("option = %+v, want amount=5000 asset=usdc payee=op-addr-1", opt)
	}
	if opt.MaxTimeoutSeconds != 300 {
		t.Errorf("MaxTimeoutSeconds = %d, want 300", opt.MaxTimeoutSeconds)
	}
}

func TestBuildRequirement_MultiAsset(t *testing.T) {
	req, err := BuildRequirement("/resources/audit/execute", "contract audit", "op-addr-1", 300, []PriceOption{
		{AssetID: "usdc", Amount: 5000},
		{AssetID: "dai", Amount: 5100},
	})
	if err != nil {
		t.Fatalf("BuildRequirement: %v", err)
	}
	if len(req.Accepts) != 2 {
		t.Fatalf("expected 2 accept options, got %d", len(req.Accepts))
	}
	// Each option must be independently payable.
	for i, opt := range req.Accepts {
		if opt.PayeeAddress == "" || opt.Amount <= 0 || opt.AssetID == "" {
			t.Errorf("option %d not self-describing: %+v", i, opt)
		}
	}
}

func TestBuildRequirement_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		options []PriceOption
		wantErr error
	}{
		{"no options", nil, ErrNoPriceOptions},
		{"zero amount", []PriceOption{{AssetID: "usdc", Amount: 0}}, ErrInvalidAmount},
		{"negative amount", []PriceOption{{AssetID: "usdc", Amount: -5}}, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildRequirement("/r", "d", "payee", 60, tt.options)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPaymentURI(t *testing.T) {
	req, _ := BuildRequirement("/resources/audit/execute", "audit", "addr9", 60, []PriceOption{
		{AssetID: "usdc", Amount: 1200},
	})
	want := "pay:addr9?asset=usdc&amount=1200&resource=/resources/audit/execute"
	if got := req.PaymentURI(); got != want {
		t.Errorf("PaymentURI() = %q, want %q", got, want)
	}
}

// ─── Proof Codec Tests ──────────────────────────────────────────────────────

func TestProofCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		proof PaymentProof
	}{
		{"signed transfer", PaymentProof{Kind: ProofSignedTransfer, RawTransaction: []byte{0xde, 0xad, 0xbe, 0xef}}},
		{"direct reference", PaymentProof{Kind: ProofDirectReference, TxID: "tx-abc-123"}},
		{"yield token", PaymentProof{Kind: ProofYieldToken, YieldReference: "debit-42"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, err := EncodeProof(tt.proof)
			if err != nil {
				t.Fatalf("EncodeProof: %v", err)
			}
			got, err := DecodeProof(header)
			if err != nil {
				t.Fatalf("DecodeProof: %v", err)
			}
			if got.Kind != tt.proof.Kind || got.TxID != tt.proof.TxID ||
				got.YieldReference != tt.proof.YieldReference ||
				string(got.RawTransaction) != string(tt.proof.RawTransaction) {
				t.Errorf("round trip lost data: got %+v, want %+v", got, tt.proof)
			}
		})
	}
}

func TestDecodeProof_Rejected(t *testing.T) {
	mustEncode := func(p PaymentProof) string {
		h, err := EncodeProof(p)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		return h
	}

	tests := []struct {
		name   string
		header string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"not json", "bm90IGpzb24="},
		{"unknown kind", mustEncode(PaymentProof{Kind: "telepathy"})},
		{"signed transfer missing bytes", mustEncode(PaymentProof{Kind: ProofSignedTransfer})},
		{"direct reference missing id", mustEncode(PaymentProof{Kind: ProofDirectReference})},
		{"yield token missing reference", mustEncode(PaymentProof{Kind: ProofYieldToken})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeProof(tt.header)
			if !errors.Is(err, ErrProofInvalid) {
				t.Errorf("err = %v, want ErrProofInvalid", err)
			}
		})
	}
}

// ─── Ledger Type Tests ──────────────────────────────────────────────────────

func TestLedgerEntry_DistributedTotal(t *testing.T) {
	e := LedgerEntry{
		Distributions: []Distribution{
			{TxReference: "t1", Amount: 1500},
			{TxReference: "t2", Amount: 1500},
			{Error: "broadcast timeout", Amount: 900}, // failed attempt does not count
		},
	}
	if got := e.DistributedTotal(); got != 3000 {
		t.Errorf("DistributedTotal() = %d, want 3000", got)
	}
}

func TestRecipientShare_Validate(t *testing.T) {
	tests := []struct {
		name    string
		share   int64
		wantErr bool
	}{
		{"zero", 0, false},
		{"half", 50, false},
		{"full", 100, false},
		{"negative", -1, true},
		{"over", 101, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RecipientShare{Name: "a", Address: "x", SharePercent: tt.share}.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
