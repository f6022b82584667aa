package snapshot

// SeasonLine is one row of a snapshot's history unpacked back into
// per-season shape.
type SeasonLine struct {
	Name string     `json:"player_name"`
	Stat SeasonStat `json:"stat"`
}

// Expand unpacks a snapshot's cumulative history into one row per season,
// preserving order. An empty history yields an empty slice.
func Expand(s PlayerSnapshot) []SeasonLine {
	lines := make([]SeasonLine, 0, len(s.SeasonStats))
	for _, stat := range s.SeasonStats {
		lines = append(lines, SeasonLine{Name: s.Name, Stat: stat})
	}
	return lines
}

// GrowthRatio divides the latest season's points by the first recorded
// season's points. A first-season average of exactly zero substitutes a
// divisor of 1, so the ratio degenerates to the latest average rather than
// dividing by zero; callers comparing ratios should know a zero start means
// the number is not really a ratio.
//
// "First" is the first season this pipeline observed, which is the player's
// true debut only if the snapshot lineage started at or before it.
func GrowthRatio(s PlayerSnapshot) (float64, error) {
	if len(s.SeasonStats) == 0 {
		return 0, ErrEmptyHistory
	}
	first := s.SeasonStats[0].Points
	last := s.SeasonStats[len(s.SeasonStats)-1].Points
	if first == 0 {
		first = 1
	}
	return last / first, nil
}
