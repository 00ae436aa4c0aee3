// Package executor runs priced operations once the gateway has accepted
// payment.
//
// The executor:
//  1. Routes the operation id to its registered backend
//  2. Bounds the run with a concurrency semaphore and a timeout
//  3. Hashes the output (SHA-256) so responses are attestable
//  4. Counts completions and failures
//
// An executor failure never unwinds the payment: the ledger entry stands
// and the error is reported to the caller as success:false.
package executor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/tollgate-network/tollgate/internal/domain"
)

// Backend performs the actual work of one operation.
type Backend interface {
	Execute(ctx context.Context, input []byte) ([]byte, error)
}

// Config controls executor behavior.
type Config struct {
	MaxConcurrent  int           // Maximum concurrent operations (default: 8)
	DefaultTimeout time.Duration // Per-operation timeout (default: 2m)
}

// DefaultConfig returns safe executor defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:  8,
		DefaultTimeout: 2 * time.Minute,
	}
}

// Executor routes operation ids to backends. Implements
// domain.OperationExecutor.
type Executor struct {
	mu        sync.RWMutex
	config    Config
	backends  map[string]Backend
	sem       chan struct{}
	completed int64
	failed    int64
}

// New creates an operation executor.
func New(cfg Config) *Executor {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultConfig().DefaultTimeout
	}
	return &Executor{
		config:   cfg,
		backends: make(map[string]Backend),
		sem:      make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Register binds a backend to an operation id.
func (e *Executor) Register(operationID string, backend Backend) {
	e.mu.Lock()
	e.backends[operationID] = backend
	e.mu.Unlock()
}

// Execute runs one paid operation to completion. The run is not cancelled
// by client disconnect — the payment is already booked, so the work is
// bounded only by the executor's own timeout.
func (e *Executor) Execute(ctx context.Context, operationID string, input []byte) ([]byte, error) {
	e.mu.RLock()
	backend, ok := e.backends[operationID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("operation %s: %w", operationID, domain.ErrUnknownResource)
	}

	select {
	case e.sem <- struct{}{}:
	default:
		return nil, fmt.Errorf("operation %s: executor at capacity (%d concurrent)", operationID, e.config.MaxConcurrent)
	}
	defer func() { <-e.sem }()

	execCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.config.DefaultTimeout)
	defer cancel()

	output, err := backend.Execute(execCtx, input)
	if err != nil {
		e.mu.Lock()
		e.failed++
		e.mu.Unlock()
		log.Printf("[executor] operation %s failed: %v", operationID, err)
		return nil, fmt.Errorf("operation %s: %v: %w", operationID, err, domain.ErrOperationFailed)
	}

	hash := sha256.Sum256(output)
	log.Printf("[executor] operation %s completed, hash=%s", operationID, hex.EncodeToString(hash[:])[:16])

	e.mu.Lock()
	e.completed++
	e.mu.Unlock()
	return output, nil
}

// Stats holds executor counters.
type Stats struct {
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	MaxSlots  int   `json:"max_slots"`
}

// Stats returns current executor statistics.
func (e *Executor) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{Completed: e.completed, Failed: e.failed, MaxSlots: e.config.MaxConcurrent}
}

// ─── Backends ───────────────────────────────────────────────────────────────

// EchoBackend returns its input unchanged. Useful for demos and tests.
type EchoBackend struct{}

func (EchoBackend) Execute(ctx context.Context, input []byte) ([]byte, error) {
	return input, nil
}

// DigestBackend returns the hex SHA-256 of its input.
type DigestBackend struct{}

func (DigestBackend) Execute(ctx context.Context, input []byte) ([]byte, error) {
	sum := sha256.Sum256(input)
	return []byte(hex.EncodeToString(sum[:])), nil
}

// HTTPBackend forwards the input to an upstream service and returns the
// response body. This is how the gateway fronts an existing paid API.
type HTTPBackend struct {
	UpstreamURL string
	Client      *http.Client
}

func (b *HTTPBackend) Execute(ctx context.Context, input []byte) ([]byte, error) {
	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.UpstreamURL, bytes.NewReader(input))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream %s: %w", b.UpstreamURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upstream %s: read body: %w", b.UpstreamURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream %s: status %s", b.UpstreamURL, resp.Status)
	}
	return body, nil
}
