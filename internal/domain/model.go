// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// ─── Payment Requirement Types ──────────────────────────────────────────────

// SchemeExact is the only supported payment scheme: the caller pays the
// exact listed amount in the listed asset.
const SchemeExact = "exact"

// AssetOption is one independently payable way to satisfy a requirement.
// Amounts are integers of the asset's smallest unit — never floats.
type AssetOption struct {
	Scheme            string            `json:"scheme"`
	AssetID           string            `json:"asset_id"`
	Amount            int64             `json:"amount"`
	PayeeAddress      string            `json:"payee_address"`
	MaxTimeoutSeconds int64             `json:"max_timeout_seconds"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// PaymentRequirement is the machine-readable "payment required" description
// served with a 402 response.
type PaymentRequirement struct {
	ResourcePath string        `json:"resource_path"`
	Description  string        `json:"description"`
	Accepts      []AssetOption `json:"accepts"`
}

// PriceOption is a single asset/amount pair fed to BuildRequirement.
type PriceOption struct {
	AssetID string
	Amount  int64
}

// BuildRequirement assembles a PaymentRequirement from price options.
// Pure function: one AssetOption per price option, each fully
// self-describing. Rejects empty option lists and non-positive amounts.
func BuildRequirement(resourcePath, description, payeeAddress string, timeoutSeconds int64, options []PriceOption) (PaymentRequirement, error) {
	if len(options) == 0 {
		return PaymentRequirement{}, fmt.Errorf("requirement for %s: %w", resourcePath, ErrNoPriceOptions)
	}
	req := PaymentRequirement{
		ResourcePath: resourcePath,
		Description:  description,
		Accepts:      make([]AssetOption, 0, len(options)),
	}
	for _, opt := range options {
		if opt.Amount <= 0 {
			return PaymentRequirement{}, fmt.Errorf("requirement for %s: asset %s amount %d: %w",
				resourcePath, opt.AssetID, opt.Amount, ErrInvalidAmount)
		}
		req.Accepts = append(req.Accepts, AssetOption{
			Scheme:            SchemeExact,
			AssetID:           opt.AssetID,
			Amount:            opt.Amount,
			PayeeAddress:      payeeAddress,
			MaxTimeoutSeconds: timeoutSeconds,
		})
	}
	return req, nil
}

// PaymentURI renders the first accepted option as a pay: URI suitable for
// QR encoding. Empty requirement yields an empty string.
func (r PaymentRequirement) PaymentURI() string {
	if len(r.Accepts) == 0 {
		return ""
	}
	opt := r.Accepts[0]
	return fmt.Sprintf("pay:%s?asset=%s&amount=%d&resource=%s",
		opt.PayeeAddress, opt.AssetID, opt.Amount, r.ResourcePath)
}

// ─── Payment Proof (tagged union) ───────────────────────────────────────────

// ProofKind tags the three accepted proof shapes.
type ProofKind string

const (
	// ProofSignedTransfer carries an unbroadcast, fully signed transfer.
	ProofSignedTransfer ProofKind = "signed_transfer"
	// ProofDirectReference asserts an existing external transaction id.
	ProofDirectReference ProofKind = "direct_reference"
	// ProofYieldToken asserts a prior debit against the yield account.
	ProofYieldToken ProofKind = "yield_token"
)

// PaymentProof is the caller-supplied evidence of payment. Exactly one of
// the payload fields is meaningful, selected by Kind.
type PaymentProof struct {
	Kind           ProofKind `json:"kind"`
	RawTransaction []byte    `json:"raw_transaction,omitempty"` // signed_transfer
	TxID           string    `json:"tx_id,omitempty"`           // direct_reference
	YieldReference string    `json:"yield_reference,omitempty"` // yield_token
}

// EncodeProof serializes a proof into the X-Payment header value
// (base64 of the JSON encoding).
func EncodeProof(p PaymentProof) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeProof parses an X-Payment header value. Unrecognized kinds and
// kind/payload mismatches are rejected explicitly — no fall-through.
func DecodeProof(header string) (PaymentProof, error) {
	data, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return PaymentProof{}, fmt.Errorf("%w: bad base64: %v", ErrProofInvalid, err)
	}
	var p PaymentProof
	if err := json.Unmarshal(data, &p); err != nil {
		return PaymentProof{}, fmt.Errorf("%w: bad json: %v", ErrProofInvalid, err)
	}
	switch p.Kind {
	case ProofSignedTransfer:
		if len(p.RawTransaction) == 0 {
			return PaymentProof{}, fmt.Errorf("%w: signed transfer without transaction bytes", ErrProofInvalid)
		}
	case ProofDirectReference:
		if p.TxID == "" {
			return PaymentProof{}, fmt.Errorf("%w: direct reference without tx id", ErrProofInvalid)
		}
	case ProofYieldToken:
		if p.YieldReference == "" {
			return PaymentProof{}, fmt.Errorf("%w: yield token without reference", ErrProofInvalid)
		}
	default:
		return PaymentProof{}, fmt.Errorf("%w: unknown proof kind %q", ErrProofInvalid, p.Kind)
	}
	return p, nil
}

// ─── Normalized Payment ─────────────────────────────────────────────────────

// PayerUnverified is the sentinel payer recorded when an external lookup
// could not confirm a direct-reference proof. The proof is still accepted;
// downstream consumers apply their own risk policy via the Verified flag.
const PayerUnverified = "unverified"

// Payment is the normalized result of proof verification. Produced exactly
// once per request and never mutated afterward.
type Payment struct {
	ProofKind   ProofKind `json:"proof_kind"`
	Payer       string    `json:"payer"`
	Amount      int64     `json:"amount"`
	AssetID     string    `json:"asset_id"`
	TxReference string    `json:"tx_reference"`
	Verified    bool      `json:"verified"`
}

// ─── Recipient Shares ───────────────────────────────────────────────────────

// RecipientShare is one beneficiary of an incoming payment. Shares need not
// sum to 100 — the remainder accrues to the operator.
type RecipientShare struct {
	Name         string `json:"name" toml:"name"`
	Address      string `json:"address" toml:"address"`
	SharePercent int64  `json:"share_percent" toml:"share_percent"`
}

// Validate rejects shares outside [0, 100].
func (r RecipientShare) Validate() error {
	if r.SharePercent < 0 || r.SharePercent > 100 {
		return fmt.Errorf("recipient %s: share %d%%: %w", r.Name, r.SharePercent, ErrInvalidShare)
	}
	return nil
}

// ─── Utilities ──────────────────────────────────────────────────────────────

// Timestamp formats a time the way all gateway records serialize it.
func Timestamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }
