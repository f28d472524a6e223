package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/sweet_shop/internal/repo"
	"github.com/Skotchmaster/sweet_shop/internal/service"
	"github.com/Skotchmaster/sweet_shop/internal/transport"
	middleware "github.com/Skotchmaster/sweet_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/sweet_shop/pkg/tokens"
)

var testSecret = []byte("test-secret")

type testEnv struct {
	E    *echo.Echo
	Repo *repo.GormRepo

	Auth  *AuthHTTP
	Sweet *SweetHTTP
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	r := &repo.GormRepo{DB: db}
	require.NoError(t, r.AutoMigrate(context.Background()))

	env := &testEnv{
		E:     echo.New(),
		Repo:  r,
		Auth:  &AuthHTTP{Svc: &service.AuthService{Repo: r, JWTSecret: testSecret, TokenTTL: time.Hour}},
		Sweet: &SweetHTTP{Svc: &service.SweetService{Repo: r}},
	}
	Register(env.E, &Deps{
		AuthHandler:      env.Auth,
		SweetHandler:     env.Sweet,
		OrderHandler:     &OrderHTTP{Svc: &service.OrderService{Repo: r}},
		InventoryHandler: &InventoryHTTP{Svc: &service.InventoryService{Repo: r}},
		Auth:             middleware.NewJWTAuth(testSecret, r),
	})
	return env
}

// do sends a request through the full router. An empty token sends no Authorization header.
func (env *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

// context builds an echo.Context for calling a handler directly.
func (env *testEnv) context(method, path string, body string) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, env.E.NewContext(req, rec)
}

func (env *testEnv) login(t *testing.T, name string, admin bool) string {
	t.Helper()

	email := name + "@example.com"
	rec := env.do(t, http.MethodPost, "/api/auth/register", transport.RegisterRequest{Name: name, Email: email, Password: "secret"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	if admin {
		u, err := env.Repo.GetUserByEmail(context.Background(), email)
		require.NoError(t, err)
		require.NoError(t, env.Repo.SetUserRole(context.Background(), u.ID, tokens.RoleAdmin))
	}

	rec = env.do(t, http.MethodPost, "/api/auth/login", transport.LoginRequest{Email: email, Password: "secret"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp transport.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) transport.ErrorResponse {
	t.Helper()
	var resp transport.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func floatPtr(f float64) *float64 { return &f }
