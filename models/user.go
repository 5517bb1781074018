package models

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User carries the permanent champion/runner-up picks made at
// registration. The picks cannot change afterwards; BonusPoints is
// written exactly once, when the final match is finalized.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Lastname       string    `json:"lastname"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	CareerID       int       `json:"career_id"`
	Role           UserRole  `json:"role"`
	ChampionTeamID int       `json:"champion_team_id"`
	RunnerUpTeamID int       `json:"runnerup_team_id"`
	BonusPoints    int       `json:"bonus_points"`
	AvatarURL      *string   `json:"avatar_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
