package models

// RankingEntry is one row of the pool standings: per-match prediction
// points plus the champion/runner-up bonus earned at the final.
type RankingEntry struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Lastname    string `json:"lastname"`
	MatchPoints int    `json:"match_points"`
	BonusPoints int    `json:"bonus_points"`
	TotalPoints int    `json:"total_points"`
	Position    int    `json:"position"`
}
