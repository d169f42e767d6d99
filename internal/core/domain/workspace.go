package domain

import (
	"slices"
	"time"
)

// Workspace groups projects under one owner. The owner is never part of
// MemberIDs; membership and ownership are separate relations.
type Workspace struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	OwnerID   string    `json:"owner_id" bson:"owner_id"`
	MemberIDs []string  `json:"member_ids" bson:"member_ids"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (w *Workspace) IsOwner(userID string) bool {
	return w.OwnerID == userID
}

func (w *Workspace) HasMember(userID string) bool {
	return slices.Contains(w.MemberIDs, userID)
}
