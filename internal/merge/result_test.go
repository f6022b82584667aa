package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultAddAndSummary(t *testing.T) {
	a := Result{Seasons: 1, NewPlayers: 3, Continuing: 10, Inactive: 2, SnapshotsWritten: 15}
	b := Result{Seasons: 1, NewPlayers: 1, Continuing: 12, Inactive: 3, SnapshotsWritten: 16}

	a.Add(b)
	assert.Equal(t, Result{Seasons: 2, NewPlayers: 4, Continuing: 22, Inactive: 5, SnapshotsWritten: 31}, a)
	assert.Equal(t, "seasons=2 new=4 continuing=22 inactive=5 written=31", a.Summary())
}
