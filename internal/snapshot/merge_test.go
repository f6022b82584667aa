package snapshot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fact(name string, season int, points float64) PlayerSeasonFact {
	return PlayerSeasonFact{
		Name:        name,
		Season:      season,
		GamesPlayed: 70,
		Points:      points,
		Rebounds:    5,
		Assists:     3,
	}
}

func TestMergeNewPlayerBootstrap(t *testing.T) {
	out, err := Merge(nil, []PlayerSeasonFact{fact("Michael Carter", 2001, 12.5)})
	require.NoError(t, err)
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, "Michael Carter", got.Name)
	assert.Equal(t, 2001, got.Season)
	assert.Equal(t, 0, got.YearsSinceLastSeason)
	assert.Equal(t, ClassAverage, got.ScoringClass)
	require.Len(t, got.SeasonStats, 1)
	assert.Equal(t, SeasonStat{Season: 2001, GamesPlayed: 70, Points: 12.5, Rebounds: 5, Assists: 3}, got.SeasonStats[0])
}

func TestMergeContinuingPlayerAppendsHistory(t *testing.T) {
	yesterday, err := Merge(nil, []PlayerSeasonFact{fact("Michael Carter", 2001, 12.5)})
	require.NoError(t, err)

	out, err := Merge(yesterday, []PlayerSeasonFact{fact("Michael Carter", 2002, 22.0)})
	require.NoError(t, err)
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, 2002, got.Season)
	assert.Equal(t, 0, got.YearsSinceLastSeason)
	assert.Equal(t, ClassStar, got.ScoringClass)

	// History is a prefix extension of yesterday's, never truncated or
	// reordered.
	require.Len(t, got.SeasonStats, 2)
	assert.Equal(t, yesterday[0].SeasonStats[0], got.SeasonStats[0])
	assert.Equal(t, 2002, got.SeasonStats[1].Season)

	// Appending must not alias yesterday's backing array.
	assert.Len(t, yesterday[0].SeasonStats, 1)
}

func TestMergeInactiveCarryForward(t *testing.T) {
	yesterday, err := Merge(nil, []PlayerSeasonFact{
		{Name: "Ray Allen", Height: "6-5", College: "UConn", Season: 2001, GamesPlayed: 69, Points: 21.8, Rebounds: 4.5, Assists: 3.4},
	})
	require.NoError(t, err)

	out, err := Merge(yesterday, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, yesterday[0].SeasonStats, got.SeasonStats)
	assert.Equal(t, yesterday[0].Height, got.Height)
	assert.Equal(t, yesterday[0].College, got.College)
	assert.Equal(t, yesterday[0].ScoringClass, got.ScoringClass)
	assert.Equal(t, 1, got.YearsSinceLastSeason)
	assert.Equal(t, 2002, got.Season)

	// Two idle seasons keep counting up.
	out2, err := Merge(out, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, out2[0].YearsSinceLastSeason)
	assert.Equal(t, 2003, out2[0].Season)
}

func TestMergeAttributePrecedence(t *testing.T) {
	yesterday := []PlayerSnapshot{{
		Name:        "Manu Ginobili",
		Height:      "6-6",
		Country:     "Argentina",
		College:     "",
		SeasonStats: []SeasonStat{{Season: 2002, Points: 7.6}},
		Season:      2002,
	}}
	today := []PlayerSeasonFact{{
		Name:    "Manu Ginobili",
		Height:  "6-7", // fresh value wins
		Country: "",    // unknown keeps yesterday's value
		Season:  2003,
		Points:  12.8,
	}}

	out, err := Merge(yesterday, today)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "6-7", out[0].Height)
	assert.Equal(t, "Argentina", out[0].Country)
	assert.Equal(t, "", out[0].College)
}

func TestMergeUnionOfBothSides(t *testing.T) {
	yesterday, err := Merge(nil, []PlayerSeasonFact{
		fact("Alpha", 2001, 25),
		fact("Bravo", 2001, 8),
	})
	require.NoError(t, err)

	out, err := Merge(yesterday, []PlayerSeasonFact{
		fact("Bravo", 2002, 9),
		fact("Charlie", 2002, 18),
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	// Output is sorted by name for deterministic writes.
	assert.Equal(t, "Alpha", out[0].Name)
	assert.Equal(t, "Bravo", out[1].Name)
	assert.Equal(t, "Charlie", out[2].Name)

	assert.Equal(t, 1, out[0].YearsSinceLastSeason) // inactive
	assert.Len(t, out[1].SeasonStats, 2)            // continuing
	assert.Len(t, out[2].SeasonStats, 1)            // new
	for _, s := range out {
		assert.Equal(t, 2002, s.Season)
	}
}

func TestMergeRejectsDuplicates(t *testing.T) {
	_, err := Merge(nil, []PlayerSeasonFact{fact("Dup", 2001, 10), fact("Dup", 2001, 11)})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	dupPrior := []PlayerSnapshot{
		{Name: "Dup", Season: 2001, SeasonStats: []SeasonStat{{Season: 2001}}},
		{Name: "Dup", Season: 2001, SeasonStats: []SeasonStat{{Season: 2001}}},
	}
	_, err = Merge(dupPrior, []PlayerSeasonFact{fact("Other", 2002, 10)})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestMergeRejectsMalformedFacts(t *testing.T) {
	cases := []struct {
		name string
		f    PlayerSeasonFact
	}{
		{"missing name", fact("", 2001, 10)},
		{"zero season", fact("X", 0, 10)},
		{"negative games", PlayerSeasonFact{Name: "X", Season: 2001, GamesPlayed: -1}},
		{"NaN points", fact("X", 2001, math.NaN())},
		{"Inf rebounds", PlayerSeasonFact{Name: "X", Season: 2001, Rebounds: math.Inf(1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Merge(nil, []PlayerSeasonFact{tc.f})
			assert.ErrorIs(t, err, ErrMalformedFact)
		})
	}
}

func TestMergeRejectsMixedSeasons(t *testing.T) {
	_, err := Merge(nil, []PlayerSeasonFact{fact("A", 2001, 10), fact("B", 2002, 10)})
	assert.ErrorIs(t, err, ErrMalformedFact)

	var mf *MalformedFactError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, "season", mf.Field)
}

func TestMergeRejectsSeasonGap(t *testing.T) {
	yesterday, err := Merge(nil, []PlayerSeasonFact{fact("A", 2001, 10)})
	require.NoError(t, err)

	_, err = Merge(yesterday, []PlayerSeasonFact{fact("A", 2003, 10)})
	assert.ErrorIs(t, err, ErrMalformedFact)
}

func TestMergeErrorReturnsNothing(t *testing.T) {
	out, err := Merge(nil, []PlayerSeasonFact{fact("Good", 2001, 10), fact("", 2001, 10)})
	require.Error(t, err)
	assert.Nil(t, out)
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		points float64
		want   ScoringClass
	}{
		{20.0, ClassGood}, // strict >, not >=
		{20.1, ClassStar},
		{15.0, ClassAverage},
		{10.0, ClassBad},
		{10.1, ClassAverage},
		{0, ClassBad},
		{-3, ClassBad},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.points), "points=%v", tc.points)
	}
}

// The two-step scenario: bootstrap from an empty snapshot, then one idle
// season carried forward.
func TestMergeEndToEnd(t *testing.T) {
	out, err := Merge(nil, []PlayerSeasonFact{{
		Name: "A", Season: 2000, GamesPlayed: 70, Points: 25, Rebounds: 5, Assists: 3,
	}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 2000, out[0].Season)
	assert.Equal(t, ClassStar, out[0].ScoringClass)
	assert.Equal(t, 0, out[0].YearsSinceLastSeason)
	require.Equal(t, []SeasonStat{{Season: 2000, GamesPlayed: 70, Points: 25, Rebounds: 5, Assists: 3}}, out[0].SeasonStats)

	out, err = Merge(out, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 2001, out[0].Season)
	assert.Equal(t, 1, out[0].YearsSinceLastSeason)
	assert.Equal(t, ClassStar, out[0].ScoringClass)
	require.Equal(t, []SeasonStat{{Season: 2000, GamesPlayed: 70, Points: 25, Rebounds: 5, Assists: 3}}, out[0].SeasonStats)
}
