package models

// Phase is static ordered reference data. Classification flags come from
// the reference table itself so that no code needs to know which numeric
// id happens to be the final.
type Phase struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	IsGroup bool   `json:"is_group"`
	IsFinal bool   `json:"is_final"`
}
