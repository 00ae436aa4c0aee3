package domain

import "time"

// ─── Bounty Types ───────────────────────────────────────────────────────────

// BountyStatus is the lifecycle state of a bounty.
type BountyStatus string

const (
	// BountyOpen accepts submissions and poster edits.
	BountyOpen BountyStatus = "open"
	// BountySubmitted is terminal: no further submissions or price edits.
	BountySubmitted BountyStatus = "submitted"
)

// Submission is one piece of work handed in against a bounty.
type Submission struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	Content     string    `json:"content"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// RewardChange is one accepted reward negotiation, kept in the bounty's
// audit trail.
type RewardChange struct {
	OldReward int64     `json:"old_reward"`
	NewReward int64     `json:"new_reward"`
	UpdatedBy string    `json:"updated_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// Bounty is a negotiable, priced task posting with a restricted edit
// window: reward and description may change only while open, and only by
// the original poster.
type Bounty struct {
	ID                 string         `json:"id"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	Reward             int64          `json:"reward"`
	PostedBy           string         `json:"posted_by"`
	Status             BountyStatus   `json:"status"`
	Submissions        []Submission   `json:"submissions"`
	NegotiationHistory []RewardChange `json:"negotiation_history"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// BountyUpdate carries a PATCH to an open bounty. Nil fields are left
// unchanged. PostedBy, when set, must match the original poster.
type BountyUpdate struct {
	Reward      *int64  `json:"reward,omitempty"`
	Description *string `json:"description,omitempty"`
	PostedBy    string  `json:"posted_by,omitempty"`
}
