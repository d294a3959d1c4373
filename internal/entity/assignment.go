package entity

import "time"

type Assignment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Class       string    `json:"class"`
	Subject     string    `json:"subject"`
	Email       string    `json:"email"`
	FileURL     string    `json:"fileUrl"`
	SubmittedAt time.Time `json:"submittedAt,omitempty"`
}
