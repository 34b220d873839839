package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/itemvault/internal/domain/auth"
	"github.com/target/itemvault/internal/ports"
	"github.com/thejerf/abtime"
)

var _ ports.CredentialStore = (*UserStore)(nil)

// userRecord is the stored form of a user. domainauth.User hides the hash from JSON.
type userRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserStore keeps one JSON value per username under <prefix>user:<username>.
// SETNX makes username claims atomic.
type UserStore struct {
	client redis.UniversalClient
	prefix string
	clock  abtime.AbstractTime
}

// UserStoreOptions configures a UserStore.
type UserStoreOptions struct {
	Prefix string              // Optional; defaults to DefaultPrefix
	Clock  abtime.AbstractTime // Optional; stamps CreatedAt, defaults to wall clock
}

// NewUserStore creates a UserStore.
func NewUserStore(client redis.UniversalClient, opts UserStoreOptions) *UserStore {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Clock == nil {
		opts.Clock = abtime.NewRealTime()
	}
	return &UserStore{client: client, prefix: opts.Prefix, clock: opts.Clock}
}

func (s *UserStore) key(username string) string {
	return s.prefix + "user:" + username
}

func (s *UserStore) CreateUser(ctx context.Context, in domainauth.NewUser) (*domainauth.User, error) {
	if in.Username == "" {
		return nil, errors.New("username cannot be empty")
	}
	role := in.Role
	if role == "" {
		role = domainauth.RoleUser
	}

	rec := userRecord{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: in.PasswordHash,
		Role:         string(role),
		CreatedAt:    s.clock.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(in.Username), data, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("username %q: %w", in.Username, ports.ErrUserExists)
	}
	return rec.toUser()
}

func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*domainauth.User, error) {
	if username == "" {
		return nil, ports.ErrUserNotFound
	}
	rec, err := getUserRecord(ctx, s.client, s.key(username))
	if err != nil {
		return nil, err
	}
	return rec.toUser()
}

func (s *UserStore) SetUserRole(ctx context.Context, username string, role domainauth.Role) error {
	if !role.Valid() {
		return fmt.Errorf("set role: %w", domainauth.ErrUnknownRole)
	}
	key := s.key(username)

	return watchUpdate(ctx, s.client, key, func(tx *redis.Tx) error {
		rec, err := getUserRecord(ctx, tx, key)
		if err != nil {
			return err
		}
		rec.Role = string(role)
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		return err
	})
}

func (s *UserStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func getUserRecord(ctx context.Context, c redis.Cmdable, key string) (*userRecord, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var rec userRecord
	if err = json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &rec, nil
}

func (r *userRecord) toUser() (*domainauth.User, error) {
	role, err := domainauth.ParseRole(r.Role)
	if err != nil {
		return nil, fmt.Errorf("stored role for %q: %w", r.Username, err)
	}
	return &domainauth.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         role,
		CreatedAt:    r.CreatedAt,
	}, nil
}
