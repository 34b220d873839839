package bootstrap

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/itemvault/config"
	redisadapter "github.com/target/itemvault/internal/adapters/redis"
	"github.com/target/itemvault/internal/data"
	domainauth "github.com/target/itemvault/internal/domain/auth"
	mockauth "github.com/target/itemvault/internal/mocks/auth"
	mockitems "github.com/target/itemvault/internal/mocks/items"
	"golang.org/x/crypto/bcrypt"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:  strings.Repeat("s", 32),
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
}

func memoryServices(t *testing.T) ServiceContainer {
	t.Helper()
	svcs, err := NewServices(ServiceDeps{
		Auth:   testAuthConfig(),
		Stores: Stores{Users: mockauth.NewMemoryCredentialStore(), Items: mockitems.NewMemoryItemRepo()},
		Logger: discard(),
	})
	require.NoError(t, err)
	return svcs
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("verbose"))
}

func TestInitLogger_WritesJSONAtLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := initLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestPostgresDSN_EscapesCredentials(t *testing.T) {
	dsn := PostgresDSN(config.DBConfig{
		Host: "db", Port: 5432, User: "app", Password: "p@ss/word", Name: "itemvault", SSLMode: "require",
	})
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/itemvault?sslmode=require", dsn)
}

func TestRedactAddr(t *testing.T) {
	redacted := redactAddr("redis://:secret@cache:6379/0")
	assert.NotContains(t, redacted, "secret")
	assert.Contains(t, redacted, "cache:6379")
	assert.Equal(t, "localhost:6379", redactAddr("localhost:6379"))
	assert.NotContains(t, redactAddr("cluster:user:pw@node:7000"), "pw")
}

func TestNewRedisClient_Selection(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.RedisConfig
		wantDesc string
		wantErr  bool
	}{
		{"direct", config.RedisConfig{URI: "localhost:6379"}, "localhost:6379", false},
		{"direct url", config.RedisConfig{URI: "redis://localhost:6379/3"}, "redis://localhost:6379/3", false},
		{"direct empty", config.RedisConfig{}, "", true},
		{"cluster nodes", config.RedisConfig{UseCluster: true, ClusterNodes: []string{" a:7000 ", "b:7000"}}, "cluster:a:7000,b:7000", false},
		{"cluster from uri", config.RedisConfig{UseCluster: true, URI: "redis://c:7000"}, "cluster:c:7000", false},
		{"cluster empty", config.RedisConfig{UseCluster: true}, "", true},
		{"sentinel", config.RedisConfig{UseSentinel: true, SentinelNodes: []string{"s:26379"}, SentinelMasterName: "m"}, "sentinel:m", false},
		{"sentinel empty", config.RedisConfig{UseSentinel: true, SentinelNodes: []string{" "}}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, desc, err := newRedisClient(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = client.Close() })
			assert.Equal(t, tt.wantDesc, desc)
		})
	}
}

func TestBuildStores(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	stores, err := BuildStores(StoreDeps{Backend: config.StorePostgres, DB: db})
	require.NoError(t, err)
	assert.IsType(t, &data.UserRepo{}, stores.Users)
	assert.IsType(t, &data.ItemRepo{}, stores.Items)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })
	stores, err = BuildStores(StoreDeps{Backend: config.StoreRedis, RedisClient: client})
	require.NoError(t, err)
	assert.IsType(t, &redisadapter.UserStore{}, stores.Users)
	assert.IsType(t, &redisadapter.ItemStore{}, stores.Items)

	_, err = BuildStores(StoreDeps{Backend: config.StorePostgres})
	require.Error(t, err)
	_, err = BuildStores(StoreDeps{Backend: config.StoreRedis})
	require.Error(t, err)
	_, err = BuildStores(StoreDeps{Backend: "sqlite"})
	require.Error(t, err)
}

func TestNewServices_RequiresSecret(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JWTSecret = ""
	_, err := NewServices(ServiceDeps{
		Auth:   cfg,
		Stores: Stores{Users: mockauth.NewMemoryCredentialStore(), Items: mockitems.NewMemoryItemRepo()},
	})
	require.Error(t, err)

	_, err = NewServices(ServiceDeps{Auth: testAuthConfig()})
	require.Error(t, err)
}

func TestBootstrapAdmin(t *testing.T) {
	svcs := memoryServices(t)
	ctx := context.Background()

	require.NoError(t, BootstrapAdmin(ctx, svcs.Auth, config.BootstrapAdminConfig{}, discard()))

	cfg := config.BootstrapAdminConfig{Username: "root", Password: "s3cret"}
	require.NoError(t, BootstrapAdmin(ctx, svcs.Auth, cfg, discard()))
	require.NoError(t, BootstrapAdmin(ctx, svcs.Auth, cfg, discard()))

	user, err := svcs.Health.GetUserByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, user.Role)
}

func TestBuildHandler_WiresConfig(t *testing.T) {
	appCfg := &config.AppConfig{IsDev: false}
	appCfg.HTTP.CORSAllowedOrigins = []string{"https://app.example.test"}
	// Signup and login share one per-IP budget.
	appCfg.HTTP.RateLimitRequests = 2
	appCfg.HTTP.RateLimitWindow = time.Minute

	h := BuildHandler(&HTTPServerConfig{Config: appCfg, Services: memoryServices(t), Logger: discard()})

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := post("/signup", `{"username":"alice","password":"pw1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = post("/login", `{"username":"alice","password":"pw1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var secure bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			secure = c.Secure
		}
	}
	assert.True(t, secure, "production config must set Secure")

	rec = post("/login", `{"username":"alice","password":"pw1"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServeHTTP_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := NewHTTPServer(&HTTPServerConfig{
		Config:   &config.AppConfig{},
		Services: memoryServices(t),
		Logger:   discard(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeHTTP(ctx, server, ln, discard()) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
