package models

import "time"

type Prize struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	InitialQuota int       `json:"initial_quota"`
	CurrentQuota int       `json:"current_quota"`
	CreatedAt    time.Time `json:"created_at"`

	ImageKey *string `json:"-"`
	ImageURL *string `json:"image_url,omitempty"`
}
