package core

import (
	"context"

	"github.com/target/itemvault/internal/domain/model"
)

// ItemRepository defines ownership-scoped item persistence.
// Every call that addresses a single item filters by both id and owner; an item
// owned by someone else is reported exactly like a missing one (ErrItemNotFound).
type ItemRepository interface {
	Create(ctx context.Context, ownerID string, req model.CreateItemRequest) (*model.Item, error)
	GetByID(ctx context.Context, ownerID, id string) (*model.Item, error)
	List(ctx context.Context, ownerID string, opts model.ItemListOptions) ([]*model.Item, error)
	Update(ctx context.Context, ownerID, id string, req model.UpdateItemRequest) (*model.Item, error)
	Delete(ctx context.Context, ownerID, id string) (bool, error)
}
