// Package items provides an in-memory ItemRepository for handler and service tests.
package items

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/target/itemvault/internal/core"
	"github.com/target/itemvault/internal/domain/model"
)

var _ core.ItemRepository = (*MemoryItemRepo)(nil)

// MemoryItemRepo stores items in a map keyed by id and filters by owner on every access.
type MemoryItemRepo struct {
	mu    sync.Mutex
	items map[string]model.Item
	now   func() time.Time
}

// NewMemoryItemRepo creates an empty repository.
func NewMemoryItemRepo() *MemoryItemRepo {
	return &MemoryItemRepo{items: make(map[string]model.Item), now: time.Now}
}

func (r *MemoryItemRepo) Create(_ context.Context, ownerID string, req model.CreateItemRequest) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ts := r.now().UTC()
	it := model.Item{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	r.items[it.ID] = it
	return &it, nil
}

func (r *MemoryItemRepo) GetByID(_ context.Context, ownerID, id string) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok || it.OwnerID != ownerID {
		return nil, core.ErrItemNotFound
	}
	return &it, nil
}

func (r *MemoryItemRepo) List(_ context.Context, ownerID string, opts model.ItemListOptions) ([]*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Item{}
	for _, it := range r.items {
		if it.OwnerID == ownerID {
			out = append(out, &it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if opts.Offset >= len(out) {
		return []*model.Item{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (r *MemoryItemRepo) Update(
	_ context.Context,
	ownerID, id string,
	req model.UpdateItemRequest,
) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok || it.OwnerID != ownerID {
		return nil, core.ErrItemNotFound
	}
	it.Name = req.Name
	it.Description = req.Description
	it.UpdatedAt = r.now().UTC()
	r.items[id] = it
	return &it, nil
}

func (r *MemoryItemRepo) Delete(_ context.Context, ownerID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok || it.OwnerID != ownerID {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}
