package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/itemvault/internal/domain/model"
	errs "github.com/target/itemvault/internal/errors"
	"github.com/target/itemvault/internal/service"
)

// ItemService is the subset of service.ItemService used by the item handlers.
type ItemService interface {
	List(ctx context.Context, owner string, opts model.ItemListOptions) ([]*model.Item, error)
	Get(ctx context.Context, owner, id string) (*model.Item, error)
	Create(ctx context.Context, owner string, req model.CreateItemRequest) (*model.Item, error)
	Update(ctx context.Context, owner, id string, req model.UpdateItemRequest) (*model.Item, error)
	Delete(ctx context.Context, owner, id string) error
}

// ItemHandlers serves /api/items. Every handler runs behind RequireAuth and
// scopes the operation to the caller's subject.
type ItemHandlers struct {
	Svc    ItemService
	Logger *slog.Logger
}

// List handles GET /api/items?limit=&offset=.
func (h *ItemHandlers) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	limit, offset, err := ParseLimitOffset(r, model.DefaultItemListLimit, model.MaxItemListLimit)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_query", Err: err})
		return
	}

	items, err := h.Svc.List(r.Context(), owner, model.ItemListOptions{Limit: limit, Offset: offset})
	if err != nil {
		h.writeErr(w, r, "list items", err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

// GetByID handles GET /api/items/{id}.
func (h *ItemHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	item, err := h.Svc.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		h.writeErr(w, r, "get item", err)
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

// Create handles POST /api/items.
func (h *ItemHandlers) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req model.CreateItemRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	item, err := h.Svc.Create(r.Context(), owner, req)
	if err != nil {
		h.writeErr(w, r, "create item", err)
		return
	}
	WriteJSON(w, http.StatusCreated, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemHandlers) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req model.UpdateItemRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	item, err := h.Svc.Update(r.Context(), owner, r.PathValue("id"), req)
	if err != nil {
		h.writeErr(w, r, "update item", err)
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	if err := h.Svc.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		h.writeErr(w, r, "delete item", err)
		return
	}
	WriteMessage(w, http.StatusOK, "Item deleted successfully")
}

func (h *ItemHandlers) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := IdentityFromContext(r.Context())
	if !ok || id.Subject == "" {
		writeAppError(w, errs.Unauthorized(msgNoToken))
		return "", false
	}
	return id.Subject, true
}

func (h *ItemHandlers) writeErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidItemID):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_id", Err: errors.New("Invalid item id")})
	case errors.Is(err, service.ErrItemNotFound):
		writeAppError(w, errs.NotFound("Item not found"))
	default:
		writeServiceError(ErrorOpts{W: w, R: r, Err: err, Op: op, Logger: h.Logger})
	}
}
