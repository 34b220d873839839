package model

import (
	"strings"
	"time"

	"github.com/target/itemvault/internal/validation"
)

const (
	// MaxItemNameLength bounds Item.Name in runes.
	MaxItemNameLength = 200
	// MaxItemDescriptionLength bounds Item.Description in runes.
	MaxItemDescriptionLength = 2000

	DefaultItemListLimit = 50
	MaxItemListLimit     = 200
)

// Item is a per-user resource. OwnerID is the subject id of the user who created it.
type Item struct {
	ID          string    `json:"id"          db:"id"`
	OwnerID     string    `json:"user_id"     db:"user_id"`
	Name        string    `json:"name"        db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"  db:"updated_at"`
}

// CreateItemRequest holds fields for creating an item.
type CreateItemRequest struct {
	Name        string `json:"name"                  validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
}

// UpdateItemRequest replaces the mutable fields of an item.
type UpdateItemRequest struct {
	Name        string `json:"name"                  validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
}

// ItemListOptions holds pagination for listing a user's items.
type ItemListOptions struct {
	Limit  int
	Offset int
}

// Normalize trims whitespace so a blank name fails the required check.
func (r *CreateItemRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *CreateItemRequest) Validate() error {
	return validation.Struct(r)
}

func (r *UpdateItemRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *UpdateItemRequest) Validate() error {
	return validation.Struct(r)
}

// Normalize clamps pagination to sane bounds.
func (o *ItemListOptions) Normalize() {
	if o.Limit <= 0 {
		o.Limit = DefaultItemListLimit
	}
	if o.Limit > MaxItemListLimit {
		o.Limit = MaxItemListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}
