package models

// Team is static reference data, seeded once and never mutated afterwards.
// Code is the lowercase flag code used by the frontend (flagcdn).
type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}
