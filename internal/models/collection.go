package models

import (
	"time"
)

// Collection is one membership row: a rom saved by a user, with optional
// notes. (user_id, rom_id) is unique.
type Collection struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	RomID   int64     `json:"rom_id"`
	Notes   string    `json:"notes,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// CollectionWithRom is a membership row joined with its rom, as returned
// by collection listings.
type CollectionWithRom struct {
	Collection
	Rom Rom `json:"rom"`
}

// AddResult reports the outcome of adding a rom to a collection. A
// duplicate add is a success with AlreadyExists set, never an error.
type AddResult struct {
	Success       bool `json:"success"`
	AlreadyExists bool `json:"already_exists,omitempty"`
}

// RemoveResult reports the outcome of removing a rom from a collection.
type RemoveResult struct {
	Success        bool `json:"success"`
	AlreadyRemoved bool `json:"already_removed,omitempty"`
}
