// Package api provides the HTTP server for Tollgate. It exposes the paid
// resource endpoints (the 402 negotiation), the settlement ledger, the
// yield account and the bounty board.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/tollgate-network/tollgate/internal/app/gateway"
	"github.com/tollgate-network/tollgate/internal/domain"
	"github.com/tollgate-network/tollgate/internal/infra/bounty"
	"github.com/tollgate-network/tollgate/internal/infra/sqlite"
	"github.com/tollgate-network/tollgate/internal/infra/yield"
)

// PaymentHeader carries the encoded payment proof on paid requests.
const PaymentHeader = "X-Payment"

// maxBodyBytes caps request bodies; priced operations take small JSON
// inputs, not uploads.
const maxBodyBytes = 1 << 20

// Server is the Tollgate HTTP API server.
type Server struct {
	gateway        *gateway.Gateway
	ledger         *sqlite.Store
	yield          *yield.Account
	board          *bounty.Board
	chain          domain.ChainReader
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(gw *gateway.Gateway, ledger *sqlite.Store, acct *yield.Account, board *bounty.Board, chain domain.ChainReader) *Server {
	return &Server{gateway: gw, ledger: ledger, yield: acct, board: board, chain: chain}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Route("/resources", func(r chi.Router) {
		r.Get("/", s.handleListResources)
		r.Post("/{resource}/execute", s.handleExecute)
		r.Get("/{resource}/qr", s.handleResourceQR)
	})

	r.Route("/ledger", func(r chi.Router) {
		r.Get("/", s.handleLedgerEntries)
		r.Get("/summary", s.handleLedgerSummary)
	})

	r.Route("/yield", func(r chi.Router) {
		r.Get("/", s.handleYieldBalance)
		r.Post("/accrue", s.handleYieldAccrue)
		r.Post("/spend", s.handleYieldSpend)
	})

	r.Route("/bounties", func(r chi.Router) {
		r.Post("/", s.handlePostBounty)
		r.Get("/", s.handleListBounties)
		r.Get("/{id}", s.handleGetBounty)
		r.Patch("/{id}", s.handleUpdateBounty)
		r.Post("/{id}/submissions", s.handleSubmitWork)
	})

	r.Get("/chain/balance/{address}", s.handleChainBalance)

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Resources ──────────────────────────────────────────────────────────────

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	type listed struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Path        string `json:"path"`
	}
	resources := s.gateway.Resources()
	out := make([]listed, 0, len(resources))
	for _, res := range resources {
		out = append(out, listed{Name: res.Name, Description: res.Description, Path: res.Path()})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"resources": out})
}

// paymentRequired is the 402 response body. It re-offers the requirement
// so the caller can construct a valid proof and retry.
type paymentRequired struct {
	Error       string                    `json:"error"`
	Requirement domain.PaymentRequirement `json:"requirement"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "resource")

	proofHeader := r.Header.Get(PaymentHeader)
	if proofHeader == "" {
		req, err := s.gateway.Requirement(name)
		if err != nil {
			writeError(w, http.StatusNotFound, "unknown resource: "+name)
			return
		}
		writeJSON(w, http.StatusPaymentRequired, paymentRequired{
			Error:       "payment required",
			Requirement: req,
		})
		return
	}

	input, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	result, err := s.gateway.Execute(r.Context(), name, proofHeader, input)
	if err != nil {
		s.writeExecuteError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeExecuteError maps gateway errors onto HTTP statuses. Payment
// rejections get a 402 that re-offers the requirement.
func (s *Server) writeExecuteError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownResource):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrProofInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSettlementRejected), errors.Is(err, domain.ErrYieldDebitUnknown):
		req, rerr := s.gateway.Requirement(name)
		if rerr != nil {
			writeError(w, http.StatusPaymentRequired, err.Error())
			return
		}
		writeJSON(w, http.StatusPaymentRequired, paymentRequired{
			Error:       err.Error(),
			Requirement: req,
		})
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleResourceQR(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "resource")
	req, err := s.gateway.Requirement(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown resource: "+name)
		return
	}
	png, err := qrcode.Encode(req.PaymentURI(), qrcode.Medium, 256)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// ─── Ledger ─────────────────────────────────────────────────────────────────

func (s *Server) handleLedgerEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": s.ledger.Entries(),
	})
}

func (s *Server) handleLedgerSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Summary())
}

// ─── Yield ──────────────────────────────────────────────────────────────────

func (s *Server) handleYieldBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{
		"balance": s.yield.Balance(),
	})
}

func (s *Server) handleYieldAccrue(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount int64 `json:"amount"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	balance := s.yield.Accrue(body.Amount)
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (s *Server) handleYieldSpend(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount int64 `json:"amount"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	result := s.yield.Spend(body.Amount)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusConflict
	}
	writeJSON(w, status, result)
}

// ─── Chain ──────────────────────────────────────────────────────────────────

func (s *Server) handleChainBalance(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	balance, err := s.chain.LookupBalance(ctx, address)
	if err != nil {
		writeError(w, http.StatusBadGateway, "balance lookup failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address": address,
		"balance": balance,
	})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+PaymentHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
