package models

// TargetKind selects which vote family a vote belongs to. The three families
// are structurally identical and share one repository implementation.
type TargetKind string

const (
	TargetArticle TargetKind = "article"
	TargetTrick   TargetKind = "trick"
	TargetFile    TargetKind = "file"
)

// Vote is one user's live vote on one target. The (UserID, TargetID) pair is
// unique per target kind; Value is +1 or -1.
type Vote struct {
	ID       int `json:"id"`
	UserID   int `json:"userId"`
	TargetID int `json:"targetId"`
	Value    int `json:"value"`
}

// VoteCounts holds the aggregate result returned after every transition.
type VoteCounts struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}
