package models

// ScoringPolicy holds the point values per tier. The tiers themselves
// are fixed (exact score > correct outcome > nothing, plus the
// champion/runner-up bonuses); the magnitudes are configuration.
type ScoringPolicy struct {
	ExactScore     int
	CorrectOutcome int
	ChampionBonus  int
	RunnerUpBonus  int
}

// DefaultScoringPolicy is used when no SCORE_* variables are set.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		ExactScore:     3,
		CorrectOutcome: 1,
		ChampionBonus:  10,
		RunnerUpBonus:  5,
	}
}
