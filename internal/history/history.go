// Package history records the append-only change log of collection items.
// Every item write produces one change row carrying the document before and
// after the mutation; rows are never updated or deleted.
package history

import "time"

// ChangeType classifies an item mutation.
type ChangeType string

// The three mutations an item can undergo.
const (
	ChangeAdd    ChangeType = "add"
	ChangeEdit   ChangeType = "edit"
	ChangeDelete ChangeType = "delete"
)

// Change is one entry of an item's change log. BeforeData is nil for adds
// and AfterData is nil for deletes; edits carry both snapshots.
type Change struct {
	ID           string         `json:"id"`
	CollectionID string         `json:"collection_id"`
	ItemID       string         `json:"item_id"`
	UserID       string         `json:"user_id,omitempty"`
	ChangeType   ChangeType     `json:"change_type"`
	BeforeData   map[string]any `json:"before_data,omitempty"`
	AfterData    map[string]any `json:"after_data,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
