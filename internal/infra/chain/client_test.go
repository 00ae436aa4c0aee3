package chain

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tollgate-network/tollgate/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "op-key", 2*time.Second)
}

func TestLookupTransaction(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tx/tx-123" {
			t.Errorf("path = %q, want /tx/tx-123", r.URL.Path)
		}
		json.NewEncoder(w).Encode(domain.TransactionRecord{
			TxID: "tx-123", From: "alice", To: "operator", Amount: 5000, AssetID: "usdc", Confirmed: true,
		})
	})

	rec, err := c.LookupTransaction(context.Background(), "tx-123")
	if err != nil {
		t.Fatalf("LookupTransaction: %v", err)
	}
	if rec.From != "alice" || rec.Amount != 5000 || !rec.Confirmed {
		t.Errorf("record = %+v", rec)
	}
}

func TestLookupTransaction_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := c.LookupTransaction(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLookupTransaction_ServerErrorIsUnknownNotInvalid(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	_, err := c.LookupTransaction(context.Background(), "tx-1")
	if err == nil {
		t.Fatal("want error")
	}
	// Must not claim the transaction does not exist.
	if errors.Is(err, domain.ErrNotFound) {
		t.Error("server failure must not map to ErrNotFound")
	}
}

func TestLookupBalance(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/address/addr-9/balance" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]int64{"balance": 77000})
	})
	got, err := c.LookupBalance(context.Background(), "addr-9")
	if err != nil {
		t.Fatalf("LookupBalance: %v", err)
	}
	if got != 77000 {
		t.Errorf("balance = %d, want 77000", got)
	}
}

func TestSubmitSigned(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != "signed-bytes" {
			t.Errorf("body = %q", body)
		}
		json.NewEncoder(w).Encode(domain.TransactionRecord{TxID: "broadcast-1", From: "alice", Amount: 5000})
	})

	rec, err := c.SubmitSigned(context.Background(), []byte("signed-bytes"))
	if err != nil {
		t.Fatalf("SubmitSigned: %v", err)
	}
	if rec.TxID != "broadcast-1" {
		t.Errorf("tx id = %q, want broadcast-1", rec.TxID)
	}
}

func TestSubmitSigned_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad signature", http.StatusUnprocessableEntity)
	})
	_, err := c.SubmitSigned(context.Background(), []byte("garbage"))
	if !errors.Is(err, domain.ErrSettlementRejected) {
		t.Errorf("err = %v, want ErrSettlementRejected", err)
	}
}

func TestSignAndBroadcast(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["recipient"] != "addr-a" || body["sender_key"] != "op-key" {
			t.Errorf("payload = %v", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"tx_id": "payout-7"})
	})

	txID, err := c.SignAndBroadcast(context.Background(), "addr-a", 1500, "share for entry 1")
	if err != nil {
		t.Fatalf("SignAndBroadcast: %v", err)
	}
	if txID != "payout-7" {
		t.Errorf("tx id = %q, want payout-7", txID)
	}
}
