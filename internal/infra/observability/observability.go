// Package observability holds the gateway's Prometheus metric set.
//
// Every branch of the error taxonomy is counted: rejected proofs,
// settlement rejections, failed operations, failed payouts, persist
// failures. Nothing is silently dropped — a state change that fails still
// produces an observable record here and in the ledger.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Payment Metrics ────────────────────────────────────────────────────────

// PaymentsAccepted tracks accepted payments by proof kind and verification
// status ("verified" / "unverified").
var PaymentsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tollgate",
	Subsystem: "payments",
	Name:      "accepted_total",
	Help:      "Total accepted payments by proof kind and verification status.",
}, []string{"proof_kind", "status"})

// PaymentsRejected tracks rejected proofs by reason.
var PaymentsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tollgate",
	Subsystem: "payments",
	Name:      "rejected_total",
	Help:      "Total rejected payment proofs by reason.",
}, []string{"reason"})

// PaymentAmount tracks incoming payment sizes in smallest units.
var PaymentAmount = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "tollgate",
	Subsystem: "payments",
	Name:      "amount_units",
	Help:      "Incoming payment amounts in smallest currency units.",
	Buckets:   []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 1000000},
})

// ─── Distribution Metrics ───────────────────────────────────────────────────

// DistributionAttempts tracks payout attempts by outcome ("ok" / "error").
var DistributionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tollgate",
	Subsystem: "distributions",
	Name:      "attempts_total",
	Help:      "Total payout attempts by outcome.",
}, []string{"outcome"})

// DistributedUnits tracks the total successfully paid out, smallest units.
var DistributedUnits = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tollgate",
	Subsystem: "distributions",
	Name:      "paid_units_total",
	Help:      "Total amount successfully distributed, in smallest units.",
})

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// LedgerEntries tracks appended ledger entries by kind.
var LedgerEntries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tollgate",
	Subsystem: "ledger",
	Name:      "entries_total",
	Help:      "Total ledger entries appended by kind.",
}, []string{"kind"})

// LedgerPersistFailures tracks synchronous persist failures. The in-memory
// append still succeeds; a restart could lose the affected rows.
var LedgerPersistFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tollgate",
	Subsystem: "ledger",
	Name:      "persist_failures_total",
	Help:      "Total failed synchronous persists of ledger rows.",
})

// ─── Yield Metrics ──────────────────────────────────────────────────────────

// YieldBalance tracks the current yield account balance.
var YieldBalance = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "tollgate",
	Subsystem: "yield",
	Name:      "balance_units",
	Help:      "Current yield account balance in smallest units.",
})

// YieldMutations tracks accruals and spends by operation and outcome.
var YieldMutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tollgate",
	Subsystem: "yield",
	Name:      "mutations_total",
	Help:      "Total yield account mutations by operation and outcome.",
}, []string{"op", "outcome"})

// ─── Operation Metrics ──────────────────────────────────────────────────────

// OperationRuns tracks priced-operation executions by resource and outcome.
var OperationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tollgate",
	Subsystem: "operations",
	Name:      "runs_total",
	Help:      "Total priced operation executions by resource and outcome.",
}, []string{"resource", "outcome"})

// ─── Bounty Metrics ─────────────────────────────────────────────────────────

// BountyEvents tracks bounty lifecycle events (posted, negotiated,
// submitted, rejected_update).
var BountyEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tollgate",
	Subsystem: "bounties",
	Name:      "events_total",
	Help:      "Total bounty lifecycle events by type.",
}, []string{"event"})
