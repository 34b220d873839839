package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/itemvault/config"
	"github.com/target/itemvault/internal/bootstrap"
	domainauth "github.com/target/itemvault/internal/domain/auth"
	mockauth "github.com/target/itemvault/internal/mocks/auth"
	mockitems "github.com/target/itemvault/internal/mocks/items"
	"golang.org/x/crypto/bcrypt"
)

func newCmdCtx(stdin string) (*commandContext, *bytes.Buffer) {
	var out bytes.Buffer
	cfg := config.AppConfig{}
	cfg.Auth = config.AuthConfig{JWTSecret: strings.Repeat("s", 32), TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost}
	return &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: cfg,
		Stdin:  strings.NewReader(stdin),
		Stdout: &out,
		Stderr: io.Discard,
	}, &out
}

func TestPrintUsage_ListsEveryCommand(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	out := buf.String()
	assert.Contains(t, out, "Usage: itemvault-admin")
	for name := range commands() {
		assert.Contains(t, out, name)
	}
	assert.Less(t, strings.Index(out, "create-admin"), strings.Index(out, "migrate"))
}

func TestParseMigrateFlags(t *testing.T) {
	opts, err := parseMigrateFlags("migrate", nil)
	require.NoError(t, err)
	assert.Equal(t, defaultMigrationTimeout, opts.Timeout)

	opts, err = parseMigrateFlags("migrate", []string{"--timeout", "30s"})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, opts.Timeout)

	_, err = parseMigrateFlags("migrate", []string{"--timeout", "0s"})
	require.Error(t, err)
}

func TestParseDBResetFlags(t *testing.T) {
	opts, err := parseDBResetFlags([]string{"--yes", "--allow-remote"})
	require.NoError(t, err)
	assert.True(t, opts.Yes)
	assert.True(t, opts.AllowRemote)

	_, err = parseDBResetFlags([]string{"--bogus"})
	require.Error(t, err)
}

func TestIsLikelyRemoteHost(t *testing.T) {
	for _, h := range []string{"", "localhost", "LOCALHOST", "127.0.0.1", "::1", "db.local"} {
		assert.False(t, isLikelyRemoteHost(h), h)
	}
	for _, h := range []string{"db.example.com", "10.0.0.5", "postgres"} {
		assert.True(t, isLikelyRemoteHost(h), h)
	}
}

func TestConfirm(t *testing.T) {
	cmdCtx, out := newCmdCtx("yes\n")
	require.NoError(t, confirm(cmdCtx, "yes"))
	assert.Contains(t, out.String(), `Type "yes" to continue`)

	cmdCtx, _ = newCmdCtx("n\n")
	require.ErrorIs(t, confirm(cmdCtx, "yes"), errAborted)

	cmdCtx, _ = newCmdCtx("")
	require.ErrorIs(t, confirm(cmdCtx, "yes"), errAborted)
}

func TestRunDBReset_RefusesRemoteWithoutFlag(t *testing.T) {
	cmdCtx, _ := newCmdCtx("")
	cmdCtx.Config.Postgres.Host = "db.example.com"

	err := runDBReset(cmdCtx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--allow-remote")
}

func TestRunDBReset_AbortsWithoutConfirmation(t *testing.T) {
	cmdCtx, out := newCmdCtx("no\n")
	cmdCtx.Config.Postgres = config.DBConfig{Host: "localhost", Port: 5432, Name: "itemvault"}

	require.ErrorIs(t, runDBReset(cmdCtx, nil), errAborted)
	assert.Contains(t, out.String(), "WARNING")
}

func TestParseCreateAdminFlags_DefaultsFromConfig(t *testing.T) {
	opts, err := parseCreateAdminFlags(nil, config.BootstrapAdminConfig{Username: "root", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, createAdminOptions{Username: "root", Password: "pw"}, opts)

	opts, err = parseCreateAdminFlags([]string{"--username", " ops ", "--password-stdin"}, config.BootstrapAdminConfig{})
	require.NoError(t, err)
	assert.Equal(t, "ops", opts.Username)
	assert.True(t, opts.PasswordStdin)
}

func TestRunCreateAdmin_RequiresCredentials(t *testing.T) {
	cmdCtx, _ := newCmdCtx("")
	err := runCreateAdmin(cmdCtx, []string{"--username", "root"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestEnsureAdmin_CreatesThenPromotes(t *testing.T) {
	users := mockauth.NewMemoryCredentialStore()
	stores := bootstrap.Stores{Users: users, Items: mockitems.NewMemoryItemRepo()}

	cmdCtx, out := newCmdCtx("")
	require.NoError(t, ensureAdmin(cmdCtx.Ctx, cmdCtx, stores, createAdminOptions{Username: "root", Password: "pw"}))
	assert.Contains(t, out.String(), `created admin "root"`)

	_, err := users.CreateUser(cmdCtx.Ctx, domainauth.NewUser{Username: "dana", PasswordHash: "x"})
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, ensureAdmin(cmdCtx.Ctx, cmdCtx, stores, createAdminOptions{Username: "dana", Password: "ignored"}))
	assert.Contains(t, out.String(), `promoted existing user "dana"`)

	u, err := users.GetUserByUsername(cmdCtx.Ctx, "dana")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, u.Role)
}
