package models

import "time"

type MatchStatus string

// Stored exactly as the frontend sends them, accents included.
const (
	StatusPendiente  MatchStatus = "pendiente"
	StatusJugandose  MatchStatus = "jugándose"
	StatusFinalizado MatchStatus = "finalizado"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case StatusPendiente, StatusJugandose, StatusFinalizado:
		return true
	}
	return false
}

// CanTransitionTo reports whether a match may move from s to target.
// Transitions are forward-only and may not skip a state: once a match is
// finalizado nothing moves it, and pendiente cannot jump straight to
// finalizado without passing through jugándose.
func (s MatchStatus) CanTransitionTo(target MatchStatus) bool {
	if s == target {
		return true
	}
	switch s {
	case StatusPendiente:
		return target == StatusJugandose
	case StatusJugandose:
		return target == StatusFinalizado
	}
	return false
}

// Match goals are nil exactly while the match is pendiente.
type Match struct {
	ID            int         `json:"id"`
	HomeTeamID    int         `json:"home_team_id"`
	AwayTeamID    int         `json:"away_team_id"`
	HomeTeamGoals *int        `json:"home_team_goals"`
	AwayTeamGoals *int        `json:"away_team_goals"`
	StartTime     time.Time   `json:"start_time"`
	PhaseID       int         `json:"phase"`
	GroupName     *string     `json:"group_name"`
	Status        MatchStatus `json:"status"`
}

// MatchDisplayed is the matches × teams × own-prediction join shown on
// the fixture page.
type MatchDisplayed struct {
	ID                      int         `json:"id"`
	HomeTeamID              int         `json:"home_team_id"`
	HomeTeamName            string      `json:"home_team_name"`
	HomeTeamCode            string      `json:"home_team_code"`
	AwayTeamID              int         `json:"away_team_id"`
	AwayTeamName            string      `json:"away_team_name"`
	AwayTeamCode            string      `json:"away_team_code"`
	HomeTeamGoals           *int        `json:"home_team_goals"`
	AwayTeamGoals           *int        `json:"away_team_goals"`
	StartTime               time.Time   `json:"start_time"`
	PhaseID                 int         `json:"phase"`
	PhaseName               string      `json:"phase_name"`
	GroupName               *string     `json:"group_name"`
	Status                  MatchStatus `json:"status"`
	PredictionHomeTeamGoals *int        `json:"prediction_home_team_goals"`
	PredictionAwayTeamGoals *int        `json:"prediction_away_team_goals"`
}
