// Package bounty implements the in-memory bounty board: negotiable task
// postings with a restricted state machine and an audit trail of reward
// changes. The board shares the ledger's single-writer, append-history
// idiom but owns its own state — the two couple only at the API layer,
// which forwards accepted reward changes into the settlement ledger.
package bounty

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tollgate-network/tollgate/internal/domain"
	"github.com/tollgate-network/tollgate/internal/infra/observability"
)

// Board is the registry of bounties. All mutation runs under one mutex.
type Board struct {
	mu       sync.Mutex
	bounties map[string]*domain.Bounty
	order    []string // ids in posting order
	nextID   int64
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{bounties: make(map[string]*domain.Bounty), nextID: 1}
}

// Post creates a bounty in the open state with a monotonic formatted id.
func (b *Board) Post(title, description string, reward int64, postedBy string) (domain.Bounty, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Bounty{}, fmt.Errorf("bounty title must not be empty: %w", domain.ErrInvalidAmount)
	}
	if reward <= 0 {
		return domain.Bounty{}, fmt.Errorf("bounty reward %d: %w", reward, domain.ErrInvalidAmount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now().UTC()
	bt := &domain.Bounty{
		ID:          fmt.Sprintf("bounty-%d", b.nextID),
		Title:       title,
		Description: description,
		Reward:      reward,
		PostedBy:    postedBy,
		Status:      domain.BountyOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.nextID++
	b.bounties[bt.ID] = bt
	b.order = append(b.order, bt.ID)
	observability.BountyEvents.WithLabelValues("posted").Inc()
	return *bt, nil
}

// Get returns a copy of the bounty with the given id.
func (b *Board) Get(id string) (domain.Bounty, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bt, ok := b.bounties[id]
	if !ok {
		return domain.Bounty{}, fmt.Errorf("bounty %s: %w", id, domain.ErrNotFound)
	}
	return copyBounty(bt), nil
}

// List returns bounties in posting order, optionally filtered by status.
// An empty filter returns everything.
func (b *Board) List(statusFilter domain.BountyStatus) []domain.Bounty {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.Bounty, 0, len(b.order))
	for _, id := range b.order {
		bt := b.bounties[id]
		if statusFilter != "" && bt.Status != statusFilter {
			continue
		}
		out = append(out, copyBounty(bt))
	}
	return out
}

// Update applies a negotiation to an open bounty. Rejected without any
// mutation when the bounty is not open or when PostedBy is set and differs
// from the original poster. An accepted reward change is returned so the
// caller can forward it to the settlement ledger's audit trail.
func (b *Board) Update(id string, upd domain.BountyUpdate) (domain.Bounty, *domain.RewardChange, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bt, ok := b.bounties[id]
	if !ok {
		return domain.Bounty{}, nil, fmt.Errorf("bounty %s: %w", id, domain.ErrNotFound)
	}
	if bt.Status != domain.BountyOpen {
		return domain.Bounty{}, nil, fmt.Errorf("bounty %s is %s: %w", id, bt.Status, domain.ErrBountyNotOpen)
	}
	if upd.PostedBy != "" && upd.PostedBy != bt.PostedBy {
		observability.BountyEvents.WithLabelValues("rejected_update").Inc()
		return domain.Bounty{}, nil, fmt.Errorf("bounty %s posted by %s, update by %s: %w",
			id, bt.PostedBy, upd.PostedBy, domain.ErrAuthorizationDenied)
	}
	if upd.Reward != nil && *upd.Reward <= 0 {
		return domain.Bounty{}, nil, fmt.Errorf("bounty reward %d: %w", *upd.Reward, domain.ErrInvalidAmount)
	}

	now := time.Now().UTC()
	var change *domain.RewardChange
	if upd.Reward != nil && *upd.Reward != bt.Reward {
		change = &domain.RewardChange{
			OldReward: bt.Reward,
			NewReward: *upd.Reward,
			UpdatedBy: upd.PostedBy,
			ChangedAt: now,
		}
		bt.NegotiationHistory = append(bt.NegotiationHistory, *change)
		bt.Reward = *upd.Reward
		observability.BountyEvents.WithLabelValues("negotiated").Inc()
	}
	if upd.Description != nil {
		bt.Description = *upd.Description
	}
	bt.UpdatedAt = now
	return copyBounty(bt), change, nil
}

// SubmitWork hands in work against an open bounty and moves it to the
// terminal submitted state. A non-open bounty is rejected unchanged.
func (b *Board) SubmitWork(id, author, content string) (domain.Bounty, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bt, ok := b.bounties[id]
	if !ok {
		return domain.Bounty{}, fmt.Errorf("bounty %s: %w", id, domain.ErrNotFound)
	}
	if bt.Status != domain.BountyOpen {
		return domain.Bounty{}, fmt.Errorf("bounty %s is %s: %w", id, bt.Status, domain.ErrBountyNotOpen)
	}

	now := time.Now().UTC()
	bt.Submissions = append(bt.Submissions, domain.Submission{
		ID:          uuid.NewString(),
		Author:      author,
		Content:     content,
		SubmittedAt: now,
	})
	bt.Status = domain.BountySubmitted
	bt.UpdatedAt = now
	observability.BountyEvents.WithLabelValues("submitted").Inc()
	return copyBounty(bt), nil
}

func copyBounty(bt *domain.Bounty) domain.Bounty {
	out := *bt
	out.Submissions = append([]domain.Submission(nil), bt.Submissions...)
	out.NegotiationHistory = append([]domain.RewardChange(nil), bt.NegotiationHistory...)
	return out
}
