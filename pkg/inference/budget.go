package inference

import "time"

// Budget bounds a traversal's depth and wall-clock time. A query that runs
// out of either stops early and reports Truncated instead of erroring —
// spec §5 treats an exhausted budget as a partial result, not a failure.
type Budget struct {
	MaxDepth int
	Deadline time.Time // zero value means no time limit
}

// DefaultBudget allows unlimited depth and no deadline.
func DefaultBudget() Budget {
	return Budget{MaxDepth: 0}
}

func (b Budget) depthExceeded(depth int) bool {
	return b.MaxDepth > 0 && depth > b.MaxDepth
}

func (b Budget) expired() bool {
	return !b.Deadline.IsZero() && time.Now().After(b.Deadline)
}
