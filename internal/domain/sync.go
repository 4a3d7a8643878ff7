package domain

import "time"

// SyncStats holds statistics about one page request.
type SyncStats struct {
	OwnerID       string
	Mode          string
	RemoteFetches int
	Fetched       int
	RangesCreated int
	Returned      int
	Duration      time.Duration
}

// Sync modes.
const (
	ModeLatest = "latest"
	ModeBefore = "before"
)

// Event actions published for favorites.
const (
	ActionCached = "cached"
	ActionFiled  = "filed"
)
