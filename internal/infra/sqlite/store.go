// Package sqlite persists the settlement ledger.
//
// The ledger is append-only: entries are created once and only their
// distributions list may grow. Rows are appended to SQLite synchronously
// before each operation returns, but the in-memory slice is the read path
// and survives a failed persist — the ledger favors forward progress over
// halting the gateway. A failed persist means a restart can lose the most
// recent rows; the failure is counted and logged, never hidden.
package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tollgate-network/tollgate/internal/domain"
	"github.com/tollgate-network/tollgate/internal/infra/observability"
)

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the ledger schema statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id           INTEGER PRIMARY KEY,
			kind         TEXT NOT NULL,
			tx_reference TEXT NOT NULL DEFAULT '',
			payer        TEXT NOT NULL DEFAULT '',
			amount       INTEGER NOT NULL DEFAULT 0,
			operation_id TEXT NOT NULL DEFAULT '',
			verified     INTEGER NOT NULL DEFAULT 0,
			created_at   TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS distributions (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id      INTEGER NOT NULL,
			tx_reference  TEXT NOT NULL DEFAULT '',
			payee_address TEXT NOT NULL,
			payee_name    TEXT NOT NULL DEFAULT '',
			amount        INTEGER NOT NULL,
			error         TEXT NOT NULL DEFAULT '',
			created_at    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dist_entry ON distributions(entry_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entry_kind ON ledger_entries(kind)`,
	}
}

// ─── Store ──────────────────────────────────────────────────────────────────

// Store is the durable, single-writer settlement ledger. All mutations run
// under one mutex so the id counter and the persisted snapshot never see an
// interleaved read-modify-write.
type Store struct {
	mu      sync.Mutex
	db      *sql.DB
	entries []domain.LedgerEntry
	nextID  int64
}

// Open opens (or creates) the ledger database under dir and loads the
// persisted snapshot. Entry ids continue from the persisted maximum — ids
// are never reused, even across restarts.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, "ledger.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	for _, stmt := range Migrations() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate ledger db: %w", err)
		}
	}
	s := &Store{db: db, nextID: 1}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *Store) load() error {
	rows, err := s.db.Query(`
		SELECT id, kind, tx_reference, payer, amount, operation_id, verified, created_at
		FROM ledger_entries ORDER BY id
	`)
	if err != nil {
		return fmt.Errorf("load ledger entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.LedgerEntry
		var verifiedInt int
		var createdStr string
		if err := rows.Scan(&e.ID, &e.Kind, &e.TxReference, &e.Payer, &e.Amount, &e.OperationID, &verifiedInt, &createdStr); err != nil {
			return err
		}
		e.Verified = verifiedInt == 1
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
		s.entries = append(s.entries, e)
		if e.ID >= s.nextID {
			s.nextID = e.ID + 1
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range s.entries {
		dists, err := s.loadDistributions(s.entries[i].ID)
		if err != nil {
			return err
		}
		s.entries[i].Distributions = dists
	}
	return nil
}

func (s *Store) loadDistributions(entryID int64) ([]domain.Distribution, error) {
	rows, err := s.db.Query(`
		SELECT tx_reference, payee_address, payee_name, amount, error, created_at
		FROM distributions WHERE entry_id = ? ORDER BY id
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("load distributions for entry %d: %w", entryID, err)
	}
	defer rows.Close()

	var dists []domain.Distribution
	for rows.Next() {
		var d domain.Distribution
		var createdStr string
		if err := rows.Scan(&d.TxReference, &d.PayeeAddress, &d.PayeeName, &d.Amount, &d.Error, &createdStr); err != nil {
			return nil, err
		}
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
		dists = append(dists, d)
	}
	return dists, rows.Err()
}

// ─── Append Operations ──────────────────────────────────────────────────────

// RecordIncoming appends an incoming-payment entry, assigns the next id,
// and persists synchronously before returning.
func (s *Store) RecordIncoming(txReference, payer string, amount int64, operationID string, verified bool) domain.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := domain.LedgerEntry{
		ID:          s.nextID,
		Kind:        domain.EntryIncoming,
		TxReference: txReference,
		Payer:       payer,
		Amount:      amount,
		OperationID: operationID,
		Verified:    verified,
		CreatedAt:   time.Now().UTC(),
	}
	s.nextID++
	s.entries = append(s.entries, entry)
	s.persistEntry(entry)
	observability.LedgerEntries.WithLabelValues(string(domain.EntryIncoming)).Inc()
	return entry
}

// RecordNegotiation appends a negotiation audit entry for a bounty reward
// change. No payouts are expected on negotiation entries.
func (s *Store) RecordNegotiation(bountyID string, oldReward, newReward int64, updatedBy string) domain.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := domain.LedgerEntry{
		ID:          s.nextID,
		Kind:        domain.EntryNegotiation,
		TxReference: fmt.Sprintf("%d->%d", oldReward, newReward),
		Payer:       updatedBy,
		Amount:      newReward,
		OperationID: bountyID,
		CreatedAt:   time.Now().UTC(),
	}
	s.nextID++
	s.entries = append(s.entries, entry)
	s.persistEntry(entry)
	observability.LedgerEntries.WithLabelValues(string(domain.EntryNegotiation)).Inc()
	return entry
}

// RecordDistribution appends a payout attempt to an existing entry and
// persists synchronously. Returns ErrNotFound for an unknown entry id.
func (s *Store) RecordDistribution(entryID int64, d domain.Distribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.entries {
		if s.entries[i].ID == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("ledger entry %d: %w", entryID, domain.ErrNotFound)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	s.entries[idx].Distributions = append(s.entries[idx].Distributions, d)

	_, err := s.db.Exec(`
		INSERT INTO distributions (entry_id, tx_reference, payee_address, payee_name, amount, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entryID, d.TxReference, d.PayeeAddress, d.PayeeName, d.Amount, d.Error, d.CreatedAt.Format(time.RFC3339))
	if err != nil {
		observability.LedgerPersistFailures.Inc()
		log.Printf("ledger: persist distribution for entry %d failed: %v", entryID, err)
	}
	return nil
}

// persistEntry writes an entry row. Caller holds the mutex. A failure is
// counted and logged; the in-memory append stands.
func (s *Store) persistEntry(e domain.LedgerEntry) {
	verifiedInt := 0
	if e.Verified {
		verifiedInt = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO ledger_entries (id, kind, tx_reference, payer, amount, operation_id, verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, string(e.Kind), e.TxReference, e.Payer, e.Amount, e.OperationID, verifiedInt, e.CreatedAt.Format(time.RFC3339))
	if err != nil {
		observability.LedgerPersistFailures.Inc()
		log.Printf("ledger: persist entry %d failed: %v", e.ID, err)
	}
}

// ─── Read Operations ────────────────────────────────────────────────────────

// Entry returns a copy of the entry with the given id.
func (s *Store) Entry(id int64) (domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			return copyEntry(s.entries[i]), nil
		}
	}
	return domain.LedgerEntry{}, fmt.Errorf("ledger entry %d: %w", id, domain.ErrNotFound)
}

// Entries returns a copy of all entries in append order.
func (s *Store) Entries() []domain.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LedgerEntry, 0, len(s.entries))
	for i := range s.entries {
		out = append(out, copyEntry(s.entries[i]))
	}
	return out
}

// Summary folds over all entries with integer arithmetic. Only incoming
// entries count toward the totals; negotiation entries are audit-only.
func (s *Store) Summary() domain.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := domain.Summary{Entries: make([]domain.LedgerEntry, 0, len(s.entries))}
	for i := range s.entries {
		e := s.entries[i]
		sum.Entries = append(sum.Entries, copyEntry(e))
		if e.Kind != domain.EntryIncoming {
			continue
		}
		sum.TotalPayments++
		sum.TotalIncoming += e.Amount
		sum.TotalDistributed += e.DistributedTotal()
	}
	sum.OperatorBalance = sum.TotalIncoming - sum.TotalDistributed
	return sum
}

func copyEntry(e domain.LedgerEntry) domain.LedgerEntry {
	out := e
	out.Distributions = make([]domain.Distribution, len(e.Distributions))
	copy(out.Distributions, e.Distributions)
	return out
}
