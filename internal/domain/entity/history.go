package entity

import "time"

// StatusHistory is the audit trail of a report or travel request transition
type StatusHistory struct {
	ID             int64     `json:"id"`
	EntityType     string    `json:"entity_type"`
	EntityID       int64     `json:"entity_id"`
	ActorID        string    `json:"actor_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Action         string    `json:"action"`
	Detail         string    `json:"detail,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// PolicyViolation is a policy finding recorded against a travel request at submission
type PolicyViolation struct {
	ID              int64     `json:"id"`
	TravelRequestID int64     `json:"travel_request_id"`
	Rule            string    `json:"rule"`
	Detail          string    `json:"detail"`
	CreatedAt       time.Time `json:"created_at"`
}

// DuplicateGroup is a set of expenses that look like the same spend.
// It is recomputed on every detection pass and never stored.
type DuplicateGroup struct {
	ExpenseIDs []int64 `json:"expense_ids"`
	Reason     string  `json:"reason"`
}
