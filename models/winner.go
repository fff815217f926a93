package models

import "time"

type Winner struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	PrizeID       string    `json:"prize_id"`
	WonAt         time.Time `json:"won_at"`

	Participant *Participant `json:"participant,omitempty"`
	Prize       *Prize       `json:"prize,omitempty"`
}
