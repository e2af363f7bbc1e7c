package models

import "github.com/google/uuid"

// Progress is the cycle snapshot pushed to the store, the webhook, and the
// admin endpoint while the fetch loop runs. ETASeconds is nil until the
// rate window has enough samples for an estimate.
type Progress struct {
	CycleID    uuid.UUID `json:"cycle_id"`
	Task       string    `json:"task"`
	Current    int       `json:"current"`
	Total      int       `json:"total"`
	ETASeconds *uint64   `json:"eta_seconds"`
}

// Finish is the completion record of one crawl cycle.
type Finish struct {
	CycleID        uuid.UUID `json:"cycle_id"`
	Task           string    `json:"task"`
	RequestedUsers uint32    `json:"requested_users"`
}
