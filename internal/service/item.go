package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/target/itemvault/internal/core"
	"github.com/target/itemvault/internal/domain/model"
	errs "github.com/target/itemvault/internal/errors"
	"github.com/target/itemvault/internal/observability/metrics"
)

var (
	// ErrInvalidItemID is returned when an item id is not a UUID.
	ErrInvalidItemID = errors.New("invalid item id")
	// ErrItemNotFound is returned for missing items and for items owned by another user.
	ErrItemNotFound = core.ErrItemNotFound
	// ErrOwnerRequired signals a caller bypassed the authentication gate.
	ErrOwnerRequired = errors.New("owner id is required")
)

// ItemServiceOptions groups dependencies for ItemService.
type ItemServiceOptions struct {
	Repo    core.ItemRepository // Required
	Logger  *slog.Logger        // Optional
	Metrics *metrics.Metrics    // Optional
}

// ItemService scopes every item operation to the calling owner.
type ItemService struct {
	repo    core.ItemRepository
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewItemService constructs a new ItemService with validation.
func NewItemService(opts ItemServiceOptions) (*ItemService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ItemRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "item_service")
	}

	return &ItemService{repo: opts.Repo, logger: logger, metrics: opts.Metrics}, nil
}

// MustNewItemService constructs a new ItemService and panics on error.
func MustNewItemService(opts ItemServiceOptions) *ItemService {
	svc, err := NewItemService(opts)
	if err != nil {
		panic(err) //nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
	}
	return svc
}

// List returns the owner's items, newest first. Never nil.
func (s *ItemService) List(ctx context.Context, owner string, opts model.ItemListOptions) ([]*model.Item, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	opts.Normalize()

	items, err := s.repo.List(ctx, owner, opts)
	if err != nil {
		s.metrics.Item("list", metrics.ResultError)
		return nil, fmt.Errorf("list items: %w", err)
	}
	if items == nil {
		items = []*model.Item{}
	}
	s.metrics.Item("list", metrics.ResultSuccess)
	return items, nil
}

// Get returns a single item owned by owner.
func (s *ItemService) Get(ctx context.Context, owner, id string) (*model.Item, error) {
	id, err := checkScope(owner, id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		s.record("get", err)
		return nil, fmt.Errorf("get item: %w", err)
	}
	s.metrics.Item("get", metrics.ResultSuccess)
	return item, nil
}

// Create stores a new item owned by owner.
func (s *ItemService) Create(ctx context.Context, owner string, req model.CreateItemRequest) (*model.Item, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		s.rejectInput(ctx, "create", err)
		return nil, err
	}

	item, err := s.repo.Create(ctx, owner, req)
	if err != nil {
		s.record("create", err)
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.metrics.Item("create", metrics.ResultSuccess)
	if s.logger != nil {
		s.logger.DebugContext(ctx, "item created", "id", item.ID, "user_id", owner)
	}
	return item, nil
}

// Update replaces name and description of an item owned by owner.
func (s *ItemService) Update(
	ctx context.Context,
	owner, id string,
	req model.UpdateItemRequest,
) (*model.Item, error) {
	id, err := checkScope(owner, id)
	if err != nil {
		return nil, err
	}
	req.Normalize()
	if err = req.Validate(); err != nil {
		s.rejectInput(ctx, "update", err)
		return nil, err
	}

	item, err := s.repo.Update(ctx, owner, id, req)
	if err != nil {
		s.record("update", err)
		return nil, fmt.Errorf("update item: %w", err)
	}

	s.metrics.Item("update", metrics.ResultSuccess)
	if s.logger != nil {
		s.logger.DebugContext(ctx, "item updated", "id", item.ID, "user_id", owner)
	}
	return item, nil
}

// Delete removes an item owned by owner. A missing or foreign item yields ErrItemNotFound.
func (s *ItemService) Delete(ctx context.Context, owner, id string) error {
	id, err := checkScope(owner, id)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, owner, id)
	if err != nil {
		s.metrics.Item("delete", metrics.ResultError)
		return fmt.Errorf("delete item: %w", err)
	}
	if !deleted {
		s.metrics.Item("delete", metrics.ResultNotFound)
		return ErrItemNotFound
	}

	s.metrics.Item("delete", metrics.ResultSuccess)
	if s.logger != nil {
		s.logger.DebugContext(ctx, "item deleted", "id", id, "user_id", owner)
	}
	return nil
}

func (s *ItemService) record(op string, err error) {
	switch {
	case errors.Is(err, ErrItemNotFound):
		s.metrics.Item(op, metrics.ResultNotFound)
	case errs.IsValidation(err):
		// rows the database rejected through a CHECK constraint
		s.metrics.Item(op, metrics.ResultInvalidInput)
	default:
		s.metrics.Item(op, metrics.ResultError)
	}
}

func (s *ItemService) rejectInput(ctx context.Context, op string, err error) {
	s.metrics.Item(op, metrics.ResultInvalidInput)
	if s.logger != nil {
		s.logger.DebugContext(ctx, "item input rejected", "operation", op, "field", errs.GetField(err))
	}
}

// checkScope returns id in canonical form.
func checkScope(owner, id string) (string, error) {
	if owner == "" {
		return "", ErrOwnerRequired
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrInvalidItemID
	}
	return parsed.String(), nil
}
