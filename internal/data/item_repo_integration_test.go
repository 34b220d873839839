package data

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/itemvault/internal/core"
	domainauth "github.com/target/itemvault/internal/domain/auth"
	"github.com/target/itemvault/internal/domain/model"
	"github.com/target/itemvault/internal/ports"
	"github.com/target/itemvault/internal/testutil"
	"github.com/thejerf/abtime"
)

func TestItemRepo_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	users := NewUserRepo(db)
	alice, err := users.CreateUser(ctx, domainauth.NewUser{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)
	bob, err := users.CreateUser(ctx, domainauth.NewUser{Username: "bob", PasswordHash: "h"})
	require.NoError(t, err)

	clock := abtime.NewManualAtTime(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	repo := NewItemRepoWithClock(db, clock)

	t.Run("create and get", func(t *testing.T) {
		it, err := repo.Create(ctx, alice.ID, model.CreateItemRequest{Name: "pen", Description: "blue"})
		require.NoError(t, err)
		assert.Equal(t, alice.ID, it.OwnerID)
		assert.True(t, it.CreatedAt.Equal(clock.Now()))

		got, err := repo.GetByID(ctx, alice.ID, it.ID)
		require.NoError(t, err)
		assert.Equal(t, "blue", got.Description)
	})

	t.Run("foreign item is invisible", func(t *testing.T) {
		it, err := repo.Create(ctx, alice.ID, model.CreateItemRequest{Name: "secret"})
		require.NoError(t, err)

		_, err = repo.GetByID(ctx, bob.ID, it.ID)
		require.ErrorIs(t, err, core.ErrItemNotFound)

		_, err = repo.Update(ctx, bob.ID, it.ID, model.UpdateItemRequest{Name: "mine now"})
		require.ErrorIs(t, err, core.ErrItemNotFound)

		deleted, err := repo.Delete(ctx, bob.ID, it.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		got, err := repo.GetByID(ctx, alice.ID, it.ID)
		require.NoError(t, err)
		assert.Equal(t, "secret", got.Name)
	})

	t.Run("list is owner scoped and newest first", func(t *testing.T) {
		clock.Advance(time.Minute)
		latest, err := repo.Create(ctx, alice.ID, model.CreateItemRequest{Name: "latest"})
		require.NoError(t, err)

		items, err := repo.List(ctx, alice.ID, model.ItemListOptions{})
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, latest.ID, items[0].ID)

		page, err := repo.List(ctx, alice.ID, model.ItemListOptions{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.NotEqual(t, latest.ID, page[0].ID)

		none, err := repo.List(ctx, bob.ID, model.ItemListOptions{})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("update and delete", func(t *testing.T) {
		it, err := repo.Create(ctx, bob.ID, model.CreateItemRequest{Name: "mug"})
		require.NoError(t, err)

		clock.Advance(time.Hour)
		updated, err := repo.Update(ctx, bob.ID, it.ID, model.UpdateItemRequest{Name: "cup", Description: "tea"})
		require.NoError(t, err)
		assert.Equal(t, "cup", updated.Name)
		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

		deleted, err := repo.Delete(ctx, bob.ID, it.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, bob.ID, it.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, alice.ID, uuid.NewString())
		require.ErrorIs(t, err, core.ErrItemNotFound)
	})
}

func TestUserRepo_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepo(db)

	u, err := repo.CreateUser(ctx, domainauth.NewUser{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = uuid.Parse(u.ID)
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, domainauth.NewUser{Username: "alice", PasswordHash: "other"})
	require.ErrorIs(t, err, ports.ErrUserExists)

	_, err = repo.GetUserByUsername(ctx, "ALICE")
	require.ErrorIs(t, err, ports.ErrUserNotFound)

	require.NoError(t, repo.SetUserRole(ctx, "alice", domainauth.RoleAdmin))
	got, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, got.Role)

	require.NoError(t, repo.Ping(ctx))
}

func TestUserRepo_ConcurrentSignupsOneWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepo(db)

	const n = 8
	results := make(chan error, n)
	for range n {
		go func() {
			_, err := repo.CreateUser(context.Background(), domainauth.NewUser{Username: "race", PasswordHash: "h"})
			results <- err
		}()
	}

	ok := 0
	for range n {
		err := <-results
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ports.ErrUserExists)
	}
	assert.Equal(t, 1, ok)
}
