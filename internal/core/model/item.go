package model

import "time"

// ContentItem is a card on a board. The core treats it as read-only input.
type ContentItem struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
