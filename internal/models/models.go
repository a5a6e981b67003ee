// Package models holds the entity types shared by the local store
// repositories, the remote appliers and the read/write facade.
//
// Every type that can appear in an outbox payload or a remote document is
// JSON-serializable; the JSON form is the snapshot replayed against the
// remote store.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Ingredient categories recognized by the application.
const (
	CategoryProtein = "protein"
	CategoryKarbo   = "karbo"
	CategorySayur   = "sayur"
	CategoryBumbu   = "bumbu"
)

// ValidCategory reports whether c is one of the known ingredient categories.
func ValidCategory(c string) bool {
	switch c {
	case CategoryProtein, CategoryKarbo, CategorySayur, CategoryBumbu:
		return true
	}
	return false
}

// FridgeItem is a pantry item owned by a single user.
//
// The natural key is (OwnerID, lower(IngredientName), Category); writes
// colliding on it are merged by quantity accumulation, never duplicated.
type FridgeItem struct {
	LocalID        int64      `json:"-"`
	RemoteID       string     `json:"remote_id,omitempty"`
	OwnerID        string     `json:"owner_id"`
	IngredientName string     `json:"ingredient_name"`
	Category       string     `json:"category"`
	Quantity       float64    `json:"quantity"`
	Unit           string     `json:"unit"`
	ExpiredAt      *time.Time `json:"expired_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NaturalKey returns the item's case-insensitive uniqueness key.
func (f *FridgeItem) NaturalKey() string {
	return f.OwnerID + "/" + strings.ToLower(f.IngredientName) + "/" + f.Category
}

// Favorite links an owner to a recipe in the shared catalog. Recipe holds a
// denormalized snapshot of the recipe document so a favorite can be
// rendered offline without the catalog row.
type Favorite struct {
	LocalID        int64           `json:"-"`
	RemoteID       string          `json:"remote_id,omitempty"`
	OwnerID        string          `json:"owner_id"`
	RecipeRemoteID string          `json:"recipe_id"`
	Recipe         json.RawMessage `json:"recipe,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NaturalKey returns owner + recipe id.
func (f *Favorite) NaturalKey() string {
	return f.OwnerID + "/" + f.RecipeRemoteID
}

// Message is one turn of a chat transcript.
type Message struct {
	Role      string          `json:"role"` // "user" or "model"
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	Embeds    json.RawMessage `json:"recipe_embeds,omitempty"`
}

// ChatHistory is the single chat transcript of an owner. The natural key
// is the owner alone; there is at most one transcript per user.
type ChatHistory struct {
	LocalID   int64     `json:"-"`
	RemoteID  string    `json:"remote_id,omitempty"`
	OwnerID   string    `json:"owner_id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recipe is a cached copy of a shared catalog recipe. Doc retains the full
// remote document; the promoted columns exist for indexed filtering.
type Recipe struct {
	LocalID     int64           `json:"-"`
	RemoteID    string          `json:"remote_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Doc         json.RawMessage `json:"doc"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Ingredient is a cached copy of a shared catalog ingredient.
type Ingredient struct {
	LocalID        int64     `json:"-"`
	RemoteID       string    `json:"remote_id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	SubCategory    string    `json:"sub_category"`
	Unit           string    `json:"unit"`
	CommonQuantity float64   `json:"common_quantity"`
	UpdatedAt      time.Time `json:"updated_at"`
}
