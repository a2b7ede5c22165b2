package dto

import "time"

// FeedbackDTO is a feedback entry with its author's username.
type FeedbackDTO struct {
	ID        uint      `json:"id"`
	UserName  string    `json:"username"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
