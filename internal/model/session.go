package model

import "time"

// SupportSession tracks a user in an active individual-support conversation
type SupportSession struct {
	UserID        string    `json:"userId"`
	StartedAt     time.Time `json:"startedAt"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	Messages      int       `json:"messages"`
}
