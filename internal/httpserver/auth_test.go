package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/sweet_shop/internal/models"
	"github.com/Skotchmaster/sweet_shop/internal/transport"
	middleware "github.com/Skotchmaster/sweet_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/sweet_shop/pkg/tokens"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.context(http.MethodPost, "/api/auth/register", `{"name":"Asha","email":"Asha@Example.com","password":"secret"}`)
	require.NoError(t, env.Auth.Register(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var u models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "Asha", u.Name)
	assert.Equal(t, "asha@example.com", u.Email)
	assert.Equal(t, tokens.RoleUser, u.Role)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestRegister_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "asha", false)

	tests := []struct {
		name string
		body string
		code int
		msg  string
	}{
		{name: "bad json", body: `{`, code: http.StatusBadRequest, msg: "invalid body"},
		{name: "no email", body: `{"name":"x","password":"p"}`, code: http.StatusBadRequest, msg: "Email is required"},
		{name: "no password", body: `{"name":"x","email":"x@example.com"}`, code: http.StatusBadRequest, msg: "Password is required"},
		{name: "duplicate", body: `{"name":"x","email":"asha@example.com","password":"p"}`, code: http.StatusConflict, msg: "Email already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := env.context(http.MethodPost, "/api/auth/register", tt.body)
			err := env.Auth.Register(c)

			var he *echo.HTTPError
			require.True(t, errors.As(err, &he))
			assert.Equal(t, tt.code, he.Code)
			assert.Equal(t, tt.msg, he.Message)
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "asha", false)

	rec, c := env.context(http.MethodPost, "/api/auth/login", `{"email":"asha@example.com","password":"secret"}`)
	require.NoError(t, env.Auth.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp transport.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "asha@example.com", resp.Username)
	assert.Equal(t, tokens.RoleUser, resp.Role)

	claims, err := tokens.AccessClaimsFromToken(resp.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", claims.Email)

	var found bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.AccessCookie {
			found = true
			assert.Equal(t, resp.Token, ck.Value)
			assert.True(t, ck.HttpOnly)
		}
	}
	assert.True(t, found)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "asha", false)

	rec := env.do(t, http.MethodPost, "/api/auth/login", transport.LoginRequest{Email: "asha@example.com", Password: "wrong"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, KindInvalidCredentials, resp.Error)
	assert.Equal(t, "Invalid credentials", resp.Message)

	rec = env.do(t, http.MethodPost, "/api/auth/login", transport.LoginRequest{Email: "asha@example.com"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp = decodeError(t, rec)
	assert.Equal(t, KindInvalidRequest, resp.Error)
	assert.Equal(t, "Email and password are required", resp.Message)
}

func TestRegister_DuplicateErrorKind(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "asha", false)

	rec := env.do(t, http.MethodPost, "/api/auth/register", transport.RegisterRequest{Name: "x", Email: "asha@example.com", Password: "p"}, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, KindRegistrationFailed, resp.Error)
	assert.Equal(t, "Email already exists", resp.Message)
}

func TestLogout_RevokesToken(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "asha", false)

	rec := env.do(t, http.MethodGet, "/api/orders", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var msg transport.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "logged out", msg.Message)

	rec = env.do(t, http.MethodGet, "/api/orders", nil, token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token revoked", decodeError(t, rec).Message)
}

func TestLogout_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/logout", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
