package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/target/itemvault/internal/core"
	"github.com/target/itemvault/internal/domain/model"
	"github.com/thejerf/abtime"
)

var _ core.ItemRepository = (*ItemStore)(nil)

// ItemStore keeps each owner's items in one hash, <prefix>items:<ownerID>,
// keyed by item id. Reaching an item always goes through its owner's hash,
// so a foreign item is indistinguishable from a missing one.
type ItemStore struct {
	client redis.UniversalClient
	prefix string
	clock  abtime.AbstractTime
}

// ItemStoreOptions configures an ItemStore.
type ItemStoreOptions struct {
	Prefix string              // Optional; defaults to DefaultPrefix
	Clock  abtime.AbstractTime // Optional; defaults to wall clock
}

// NewItemStore creates an ItemStore.
func NewItemStore(client redis.UniversalClient, opts ItemStoreOptions) *ItemStore {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Clock == nil {
		opts.Clock = abtime.NewRealTime()
	}
	return &ItemStore{client: client, prefix: opts.Prefix, clock: opts.Clock}
}

func (s *ItemStore) key(ownerID string) string {
	return s.prefix + "items:" + ownerID
}

func (s *ItemStore) Create(ctx context.Context, ownerID string, req model.CreateItemRequest) (*model.Item, error) {
	now := s.clock.Now().UTC()
	it := model.Item{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	data, err := json.Marshal(it)
	if err != nil {
		return nil, fmt.Errorf("marshal item: %w", err)
	}
	if err = s.client.HSet(ctx, s.key(ownerID), it.ID, data).Err(); err != nil {
		return nil, fmt.Errorf("redis hset: %w", err)
	}
	return &it, nil
}

func (s *ItemStore) GetByID(ctx context.Context, ownerID, id string) (*model.Item, error) {
	return getItem(ctx, s.client, s.key(ownerID), id)
}

func (s *ItemStore) List(ctx context.Context, ownerID string, opts model.ItemListOptions) ([]*model.Item, error) {
	opts.Normalize()

	vals, err := s.client.HVals(ctx, s.key(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hvals: %w", err)
	}

	items := make([]*model.Item, 0, len(vals))
	for _, v := range vals {
		var it model.Item
		if err = json.Unmarshal([]byte(v), &it); err != nil {
			return nil, fmt.Errorf("unmarshal item: %w", err)
		}
		items = append(items, &it)
	}

	// Same order as the SQL store: created_at DESC, id DESC.
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if opts.Offset >= len(items) {
		return []*model.Item{}, nil
	}
	items = items[opts.Offset:]
	if opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items, nil
}

func (s *ItemStore) Update(
	ctx context.Context,
	ownerID, id string,
	req model.UpdateItemRequest,
) (*model.Item, error) {
	key := s.key(ownerID)
	var out *model.Item

	err := watchUpdate(ctx, s.client, key, func(tx *redis.Tx) error {
		it, err := getItem(ctx, tx, key, id)
		if err != nil {
			return err
		}
		it.Name = req.Name
		it.Description = req.Description
		it.UpdatedAt = s.clock.Now().UTC()

		data, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("marshal item: %w", err)
		}
		if _, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, id, data)
			return nil
		}); err != nil {
			return err
		}
		out = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ItemStore) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	n, err := s.client.HDel(ctx, s.key(ownerID), id).Result()
	if err != nil {
		return false, fmt.Errorf("redis hdel: %w", err)
	}
	return n > 0, nil
}

func getItem(ctx context.Context, c redis.Cmdable, key, id string) (*model.Item, error) {
	data, err := c.HGet(ctx, key, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget: %w", err)
	}
	var it model.Item
	if err = json.Unmarshal(data, &it); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &it, nil
}
