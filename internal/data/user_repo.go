package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domainauth "github.com/target/itemvault/internal/domain/auth"
	errs "github.com/target/itemvault/internal/errors"
	"github.com/target/itemvault/internal/ports"
)

const userColumns = "id, username, password_hash, role, created_at"

// UserRepo is the Postgres CredentialStore. Username uniqueness is enforced by
// the users_username_key constraint, so concurrent signups for one name
// produce exactly one row.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// CreateUser inserts a user. A taken username yields ports.ErrUserExists.
func (r *UserRepo) CreateUser(ctx context.Context, in domainauth.NewUser) (*domainauth.User, error) {
	role := in.Role
	if role == "" {
		role = domainauth.RoleUser
	}

	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, role)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		in.Username, in.PasswordHash, string(role),
	)

	u, err := scanUser(row)
	if err != nil {
		if errs.IsConflict(errs.MapDBError(err)) {
			return nil, fmt.Errorf("username %q: %w", in.Username, ports.ErrUserExists)
		}
		return nil, mapErr("create user", err)
	}
	return u, nil
}

// GetUserByUsername performs an exact, case-sensitive lookup.
func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (*domainauth.User, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrUserNotFound
	}
	if err != nil {
		return nil, mapErr("get user", err)
	}
	return u, nil
}

// SetUserRole changes the role of an existing user.
func (r *UserRepo) SetUserRole(ctx context.Context, username string, role domainauth.Role) error {
	if !role.Valid() {
		return fmt.Errorf("set role: %w", domainauth.ErrUnknownRole)
	}

	res, err := r.DB.ExecContext(ctx, `UPDATE users SET role = $2 WHERE username = $1`, username, string(role))
	if err != nil {
		return mapErr("set role", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if n == 0 {
		return ports.ErrUserNotFound
	}
	return nil
}

// Ping checks database connectivity.
func (r *UserRepo) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

func scanUser(row *sql.Row) (*domainauth.User, error) {
	var (
		u    domainauth.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := domainauth.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("stored role for %q: %w", u.Username, err)
	}
	u.Role = parsed
	return &u, nil
}
