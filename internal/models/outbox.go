package models

import "time"

// Action is the kind of mutation an outbox entry replays against the
// remote store.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Kind identifies the entity collection an outbox entry or remote document
// belongs to.
type Kind string

const (
	KindFridgeItem  Kind = "fridge"
	KindFavorite    Kind = "favorites"
	KindChatHistory Kind = "chat"
	KindRecipe      Kind = "recipes"
	KindIngredient  Kind = "ingredients"
)

// OutboxEntry is one recorded intention to mutate the remote store.
//
// An entry is immutable once created except for the sync bookkeeping
// fields (Synced, Attempts, Dead). Synced transitions false→true exactly
// once and is never reverted.
type OutboxEntry struct {
	ID       int64
	Action   Action
	Kind     Kind
	RemoteID string // empty until the entity has been synced at least once
	OwnerID  string
	Payload  []byte // JSON snapshot sufficient to replay the mutation
	Synced   bool
	// Attempts counts failed applies; when a retry ceiling is configured
	// and exceeded, Dead is set and the entry is no longer drained.
	Attempts  int
	Dead      bool
	CreatedAt time.Time
}
