package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/itemvault/internal/domain/model"
	errs "github.com/target/itemvault/internal/errors"
	"github.com/target/itemvault/internal/mocks"
	mockitems "github.com/target/itemvault/internal/mocks/items"
	"github.com/target/itemvault/internal/observability/metrics"
	"go.uber.org/mock/gomock"
)

const (
	alice = "8d4b7e2a-6c1f-4f0e-9a55-1f3c2b7d9e01"
	bob   = "2f9a1c3e-5b7d-4e8f-a0b1-c2d3e4f5a6b7"
)

func newItemService(t *testing.T) (*ItemService, *mockitems.MemoryItemRepo) {
	t.Helper()
	repo := mockitems.NewMemoryItemRepo()
	svc, err := NewItemService(ItemServiceOptions{Repo: repo})
	require.NoError(t, err)
	return svc, repo
}

func TestNewItemService_RequiresRepo(t *testing.T) {
	_, err := NewItemService(ItemServiceOptions{})
	require.Error(t, err)
	assert.Panics(t, func() { MustNewItemService(ItemServiceOptions{}) })
}

func TestItemService_CRUD(t *testing.T) {
	svc, _ := newItemService(t)
	ctx := context.Background()

	items, err := svc.List(ctx, alice, model.ItemListOptions{})
	require.NoError(t, err)
	require.NotNil(t, items)
	assert.Empty(t, items)

	created, err := svc.Create(ctx, alice, model.CreateItemRequest{Name: "  pen ", Description: "blue"})
	require.NoError(t, err)
	assert.Equal(t, "pen", created.Name)
	assert.Equal(t, alice, created.OwnerID)

	got, err := svc.Get(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	updated, err := svc.Update(ctx, alice, created.ID, model.UpdateItemRequest{Name: "pencil"})
	require.NoError(t, err)
	assert.Equal(t, "pencil", updated.Name)
	assert.Empty(t, updated.Description)

	require.NoError(t, svc.Delete(ctx, alice, created.ID))
	_, err = svc.Get(ctx, alice, created.ID)
	require.ErrorIs(t, err, ErrItemNotFound)
	require.ErrorIs(t, svc.Delete(ctx, alice, created.ID), ErrItemNotFound)
}

func TestItemService_ForeignItemsLookMissing(t *testing.T) {
	svc, _ := newItemService(t)
	ctx := context.Background()

	mine, err := svc.Create(ctx, alice, model.CreateItemRequest{Name: "pen"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, mine.ID)
	require.ErrorIs(t, err, ErrItemNotFound)

	_, err = svc.Update(ctx, bob, mine.ID, model.UpdateItemRequest{Name: "stolen"})
	require.ErrorIs(t, err, ErrItemNotFound)

	require.ErrorIs(t, svc.Delete(ctx, bob, mine.ID), ErrItemNotFound)

	bobs, err := svc.List(ctx, bob, model.ItemListOptions{})
	require.NoError(t, err)
	assert.Empty(t, bobs)

	// Untouched for the owner.
	got, err := svc.Get(ctx, alice, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "pen", got.Name)

	// A missing id and a foreign id produce the same error text.
	_, missing := svc.Get(ctx, bob, uuid.NewString())
	_, foreign := svc.Get(ctx, bob, mine.ID)
	assert.Equal(t, missing.Error(), foreign.Error())
}

func TestItemService_InvalidID(t *testing.T) {
	svc, _ := newItemService(t)
	ctx := context.Background()

	for _, id := range []string{"", "abc", "123", "not-a-uuid-at-all"} {
		_, err := svc.Get(ctx, alice, id)
		require.ErrorIs(t, err, ErrInvalidItemID, id)
		_, err = svc.Update(ctx, alice, id, model.UpdateItemRequest{Name: "x"})
		require.ErrorIs(t, err, ErrInvalidItemID, id)
		require.ErrorIs(t, svc.Delete(ctx, alice, id), ErrInvalidItemID, id)
	}
}

func TestItemService_CanonicalizesID(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockItemRepository(ctrl)
	svc := MustNewItemService(ItemServiceOptions{Repo: repo})

	id := uuid.New()
	repo.EXPECT().GetByID(gomock.Any(), alice, id.String()).Return(&model.Item{ID: id.String()}, nil)

	_, err := svc.Get(context.Background(), alice, strings.ToUpper(id.String()))
	require.NoError(t, err)
}

func TestItemService_Validation(t *testing.T) {
	svc, repo := newItemService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, model.CreateItemRequest{Name: "   "})
	require.True(t, errs.IsValidation(err))
	assert.Equal(t, "name", errs.GetField(err))

	_, err = svc.Create(ctx, alice, model.CreateItemRequest{Name: strings.Repeat("n", model.MaxItemNameLength+1)})
	require.True(t, errs.IsValidation(err))

	items, err := repo.List(ctx, alice, model.ItemListOptions{})
	require.NoError(t, err)
	assert.Empty(t, items)

	existing, err := svc.Create(ctx, alice, model.CreateItemRequest{Name: "pen"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, alice, existing.ID, model.UpdateItemRequest{})
	require.True(t, errs.IsValidation(err))
}

func TestItemService_OwnerRequired(t *testing.T) {
	svc, _ := newItemService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, "", model.ItemListOptions{})
	require.ErrorIs(t, err, ErrOwnerRequired)
	_, err = svc.Create(ctx, "", model.CreateItemRequest{Name: "x"})
	require.ErrorIs(t, err, ErrOwnerRequired)
	_, err = svc.Get(ctx, "", uuid.NewString())
	require.ErrorIs(t, err, ErrOwnerRequired)
}

func TestItemService_ListNormalizesPaging(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockItemRepository(ctrl)
	svc := MustNewItemService(ItemServiceOptions{Repo: repo})

	repo.EXPECT().
		List(gomock.Any(), alice, model.ItemListOptions{Limit: model.MaxItemListLimit, Offset: 0}).
		Return(nil, nil)

	items, err := svc.List(context.Background(), alice, model.ItemListOptions{Limit: 10_000, Offset: -3})
	require.NoError(t, err)
	require.NotNil(t, items)
}

func TestItemService_RepoErrorsAndMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockItemRepository(ctrl)
	m := metrics.New()
	svc := MustNewItemService(ItemServiceOptions{Repo: repo, Metrics: m})
	ctx := context.Background()
	id := uuid.NewString()

	boom := errors.New("db down")
	repo.EXPECT().Delete(gomock.Any(), alice, id).Return(false, boom)
	err := svc.Delete(ctx, alice, id)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrItemNotFound)

	repo.EXPECT().GetByID(gomock.Any(), alice, id).Return(nil, ErrItemNotFound)
	_, err = svc.Get(ctx, alice, id)
	require.ErrorIs(t, err, ErrItemNotFound)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, `itemvault_item_operations_total{operation="delete",result="error"} 1`)
	assert.Contains(t, body, `itemvault_item_operations_total{operation="get",result="not_found"} 1`)
}

func TestItemService_StoreRejectionsCountAsInvalidInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockItemRepository(ctrl)
	m := metrics.New()
	svc := MustNewItemService(ItemServiceOptions{Repo: repo, Metrics: m})

	rejected := errs.Wrap(errors.New("check violation"), errs.ErrCodeValidation, "Invalid data. Please check your input.")
	repo.EXPECT().Create(gomock.Any(), alice, gomock.Any()).Return(nil, rejected)

	_, err := svc.Create(context.Background(), alice, model.CreateItemRequest{Name: "pen"})
	require.True(t, errs.IsValidation(err))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `itemvault_item_operations_total{operation="create",result="invalid_input"} 1`)
}
