package groups

import "time"

// Group collects users working on shared tasks.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Member links a user to a group.
type Member struct {
	GroupID string    `json:"groupId"`
	UserID  string    `json:"userId"`
	AddedAt time.Time `json:"addedAt"`
}
