package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/target/itemvault/internal/adapters/jwtcodec"
	mockauth "github.com/target/itemvault/internal/mocks/auth"
	mockitems "github.com/target/itemvault/internal/mocks/items"
	"github.com/target/itemvault/internal/observability/metrics"
	"github.com/target/itemvault/internal/service"
	"github.com/thejerf/abtime"
)

const testSecret = "router-test-secret"

type routerFixture struct {
	handler http.Handler
	users   *mockauth.MemoryCredentialStore
	items   *mockitems.MemoryItemRepo
	codec   *jwtcodec.Codec
	clock   *abtime.ManualTime
	metrics *metrics.Metrics
	auth    *service.AuthService
}

type fixtureOpt func(*RouterServices)

func newRouterFixture(t *testing.T, opts ...fixtureOpt) *routerFixture {
	t.Helper()

	clock := abtime.NewManualAtTime(time.Unix(1_700_000_000, 0))
	codec := jwtcodec.MustNew(jwtcodec.Options{Secret: testSecret, TTL: time.Hour, Clock: clock})
	users := mockauth.NewMemoryCredentialStore()
	items := mockitems.NewMemoryItemRepo()
	m := metrics.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	authSvc := service.MustNewAuthService(service.AuthServiceOptions{
		Users:   users,
		Codec:   codec,
		Hasher:  mockauth.PlainHasher{},
		Logger:  logger,
		Metrics: m,
	})
	itemSvc := service.MustNewItemService(service.ItemServiceOptions{Repo: items, Logger: logger, Metrics: m})

	rs := RouterServices{
		Auth:    authSvc,
		Items:   itemSvc,
		Health:  users,
		Metrics: m,
		Logger:  logger,
	}
	for _, o := range opts {
		o(&rs)
	}

	return &routerFixture{
		handler: NewRouter(rs),
		users:   users,
		items:   items,
		codec:   codec,
		clock:   clock,
		metrics: m,
		auth:    authSvc,
	}
}

// do sends a request through the router. body is JSON-encoded unless it is a string.
func (f *routerFixture) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// signupAndLogin registers username and returns its token cookie.
func (f *routerFixture) signupAndLogin(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	creds := map[string]string{"username": username, "password": password}

	rec := f.do(t, http.MethodPost, "/signup", creds)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/login", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return tokenCookie(t, rec)
}

func tokenCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == TokenCookieName {
			return c
		}
	}
	t.Fatalf("response set no %q cookie", TokenCookieName)
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func requireErrorBody(t *testing.T, rec *httptest.ResponseRecorder, status int, code, message string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	require.Equal(t, code, body["error"])
	require.Equal(t, message, body["message"])
}
