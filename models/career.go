package models

type Career struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
