package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/target/itemvault/internal/core"
	"github.com/target/itemvault/internal/data/pgxutil"
	"github.com/target/itemvault/internal/domain/model"
	"github.com/thejerf/abtime"
)

const itemColumns = "id, user_id, name, description, created_at, updated_at"

var _ core.ItemRepository = (*ItemRepo)(nil)

// ItemRepo provides ownership-scoped database operations for items.
// Every statement that addresses one item filters on both id and user_id.
type ItemRepo struct {
	DB    *sql.DB
	clock abtime.AbstractTime
}

// NewItemRepo creates a new ItemRepo using the wall clock.
func NewItemRepo(db *sql.DB) *ItemRepo {
	return &ItemRepo{DB: db, clock: abtime.NewRealTime()}
}

// NewItemRepoWithClock creates an ItemRepo with a custom clock (useful for tests).
func NewItemRepoWithClock(db *sql.DB, clock abtime.AbstractTime) *ItemRepo {
	return &ItemRepo{DB: db, clock: clock}
}

// Create inserts an item owned by ownerID.
func (r *ItemRepo) Create(ctx context.Context, ownerID string, req model.CreateItemRequest) (*model.Item, error) {
	now := r.clock.Now().UTC()
	out, err := r.queryOne(ctx, `
		INSERT INTO items (user_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING `+itemColumns,
		ownerID, req.Name, req.Description, now,
	)
	if err != nil {
		return nil, mapErr("create item", err)
	}
	return out, nil
}

// GetByID returns the item only if ownerID owns it.
func (r *ItemRepo) GetByID(ctx context.Context, ownerID, id string) (*model.Item, error) {
	out, err := r.queryOne(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1 AND user_id = $2`, id, ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrItemNotFound
	}
	if err != nil {
		return nil, mapErr("get item", err)
	}
	return out, nil
}

// List returns ownerID's items, newest first.
func (r *ItemRepo) List(ctx context.Context, ownerID string, opts model.ItemListOptions) ([]*model.Item, error) {
	opts.Normalize()

	var rowsOut []model.Item
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+itemColumns+`
			FROM items
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2 OFFSET $3`,
			ownerID, opts.Limit, opts.Offset,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Item])
		return err
	}); err != nil {
		return nil, mapErr("list items", err)
	}

	res := make([]*model.Item, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Update replaces name and description. A missing or foreign item yields core.ErrItemNotFound.
func (r *ItemRepo) Update(
	ctx context.Context,
	ownerID, id string,
	req model.UpdateItemRequest,
) (*model.Item, error) {
	out, err := r.queryOne(ctx, `
		UPDATE items
		SET name = $3, description = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2
		RETURNING `+itemColumns,
		id, ownerID, req.Name, req.Description, r.clock.Now().UTC(),
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrItemNotFound
	}
	if err != nil {
		return nil, mapErr("update item", err)
	}
	return out, nil
}

// Delete removes the item if ownerID owns it and reports whether a row went away.
func (r *ItemRepo) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM items WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return false, mapErr("delete item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapErr("delete item", err)
	}
	return n > 0, nil
}

func (r *ItemRepo) queryOne(ctx context.Context, query string, args ...any) (*model.Item, error) {
	var out model.Item
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Item])
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
