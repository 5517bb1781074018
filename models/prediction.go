package models

// Prediction is one user's guessed score for one match, unique per
// (user_id, match_id). Points stays nil until the match is finalized,
// then is written once and never changes.
type Prediction struct {
	UserID        string `json:"user_id"`
	MatchID       int    `json:"match_id"`
	HomeTeamGoals int    `json:"home_team_goals"`
	AwayTeamGoals int    `json:"away_team_goals"`
	Points        *int   `json:"points"`
}
