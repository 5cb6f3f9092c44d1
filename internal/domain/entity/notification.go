package entity

import "time"

// Notification is the delivery record of one engine event
type Notification struct {
	ID           int64      `json:"id"`
	EventID      string     `json:"event_id"`
	EntityType   string     `json:"entity_type"`
	EntityID     int64      `json:"entity_id"`
	Kind         string     `json:"kind"`
	RecipientID  string     `json:"recipient_id"`
	Message      string     `json:"message"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Attempts     int        `json:"attempts"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
