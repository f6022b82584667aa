// Package merge orchestrates one season's snapshot merge: load the prior
// season's snapshots and the new season's facts, reconcile them, and replace
// the output season atomically.
package merge

import "fmt"

// Result tracks counts from a merge run.
type Result struct {
	Seasons          int
	NewPlayers       int
	Continuing       int
	Inactive         int
	SnapshotsWritten int
}

// Add merges another Result into this one.
func (r *Result) Add(other Result) {
	r.Seasons += other.Seasons
	r.NewPlayers += other.NewPlayers
	r.Continuing += other.Continuing
	r.Inactive += other.Inactive
	r.SnapshotsWritten += other.SnapshotsWritten
}

// Summary returns a human-readable summary of the merge run.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"seasons=%d new=%d continuing=%d inactive=%d written=%d",
		r.Seasons, r.NewPlayers, r.Continuing, r.Inactive, r.SnapshotsWritten,
	)
}
