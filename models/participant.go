package models

import "time"

type Participant struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ExternalID     string    `json:"external_id"`
	Category       string    `json:"category"`
	EmploymentType string    `json:"employment_type"`
	IsWinner       bool      `json:"is_winner"`
	CheckedIn      bool      `json:"checked_in"`
	CreatedAt      time.Time `json:"created_at"`
}
