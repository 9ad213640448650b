package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macromates/nutribuddy/internal/auth"
	"github.com/macromates/nutribuddy/internal/config"
	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/service"
)

const testPassword = "correct-horse-battery"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig() config.Config {
	return config.Config{
		Port:     8080,
		DBDriver: config.DriverSQLite,
		DBPath:   ":memory:",
		TokenTTL: 15 * time.Minute,
	}
}

// newAuthServer starts a server with authentication on and one account per
// role, all sharing testPassword.
func newAuthServer(t *testing.T) *Server {
	t.Helper()

	cfg := testConfig()
	cfg.JWTSecret = "test-secret-at-least-16-chars"

	srv, err := New(cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ctx := context.Background()
	client, err := srv.services.Clients.Create(ctx, service.ClientInput{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	for _, role := range model.Roles {
		in := service.AccountInput{
			Email:       string(role) + "@example.com",
			DisplayName: string(role),
			Role:        role,
			Password:    testPassword,
		}
		if role == model.RoleClient {
			in.ClientID = &client.ID
		}
		_, err := srv.services.Auth.CreateAccount(ctx, in)
		require.NoError(t, err)
	}
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

// login signs in as role and returns the bearer token.
func login(t *testing.T, srv *Server, role model.Role) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": string(role) + "@example.com", "password": testPassword})
	rr := serve(srv, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func TestServer_AuthDisabled(t *testing.T) {
	srv, err := New(testConfig(), testLogger())
	require.NoError(t, err)
	defer srv.Close()

	assert.Equal(t, http.StatusOK, serve(srv, httptest.NewRequest(http.MethodGet, "/api/clients", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(srv, httptest.NewRequest(http.MethodGet, "/api/datasets", nil)).Code)

	// Without a secret there is nothing to sign in to.
	assert.Equal(t, http.StatusNotFound, serve(srv, httptest.NewRequest(http.MethodPost, "/auth/login", nil)).Code)
}

func TestServer_Anonymous(t *testing.T) {
	srv := newAuthServer(t)

	t.Run("index is open", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(srv, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	})

	t.Run("api requires a token", func(t *testing.T) {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/clients", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"valid authentication required","code":"unauthorized"}`, rr.Body.String())
	})

	t.Run("garbage token is anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, serve(srv, req).Code)
	})

	t.Run("me requires a token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(srv, httptest.NewRequest(http.MethodGet, "/auth/me", nil)).Code)
	})

	t.Run("github routes absent when not configured", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(srv, httptest.NewRequest(http.MethodGet, "/auth/github/login", nil)).Code)
	})
}

func TestServer_Login(t *testing.T) {
	srv := newAuthServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{name: "valid", body: `{"email":"ceo@example.com","password":"` + testPassword + `"}`, wantCode: http.StatusOK},
		{name: "email is case insensitive", body: `{"email":"CEO@Example.com","password":"` + testPassword + `"}`, wantCode: http.StatusOK},
		{name: "wrong password", body: `{"email":"ceo@example.com","password":"nope-nope-nope"}`, wantCode: http.StatusUnauthorized},
		{name: "unknown email", body: `{"email":"who@example.com","password":"` + testPassword + `"}`, wantCode: http.StatusUnauthorized},
		{name: "missing password", body: `{"email":"ceo@example.com"}`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(srv, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(tt.body)))
			assert.Equal(t, tt.wantCode, rr.Code, rr.Body.String())

			if tt.wantCode == http.StatusOK {
				cookies := rr.Result().Cookies()
				require.Len(t, cookies, 1)
				assert.Equal(t, auth.CookieName, cookies[0].Name)
				assert.True(t, cookies[0].HttpOnly)
				assert.Equal(t, int((15 * time.Minute).Seconds()), cookies[0].MaxAge)
			}
		})
	}
}

func TestServer_SessionCookie(t *testing.T) {
	srv := newAuthServer(t)
	token := login(t, srv, model.RoleNutritionist)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rr := serve(srv, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var me model.Account
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, model.RoleNutritionist, me.Role)
	assert.Equal(t, "nutritionist@example.com", me.Email)
	assert.NotContains(t, rr.Body.String(), "password")

	rr = serve(srv, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestServer_RolePolicy(t *testing.T) {
	srv := newAuthServer(t)

	tokens := map[model.Role]string{}
	for _, role := range model.Roles {
		tokens[role] = login(t, srv, role)
	}

	tests := []struct {
		role     model.Role
		method   string
		path     string
		wantCode int
	}{
		{model.RoleClient, http.MethodGet, "/api/clients", http.StatusOK},
		{model.RoleClient, http.MethodPost, "/api/clients", http.StatusForbidden},
		{model.RoleClient, http.MethodGet, "/api/meal-logs?client_id=1", http.StatusOK},
		{model.RoleClient, http.MethodGet, "/api/datasets", http.StatusForbidden},
		{model.RoleClient, http.MethodGet, "/api/nutritionist/dashboard", http.StatusForbidden},

		{model.RoleNutritionist, http.MethodGet, "/api/nutritionist/dashboard", http.StatusOK},
		{model.RoleNutritionist, http.MethodGet, "/api/nutrient-targets", http.StatusOK},
		{model.RoleNutritionist, http.MethodGet, "/api/ceo", http.StatusForbidden},
		{model.RoleNutritionist, http.MethodGet, "/api/accounts", http.StatusForbidden},

		{model.RoleCEO, http.MethodGet, "/api/ceo/key_metrics", http.StatusOK},
		{model.RoleCEO, http.MethodGet, "/api/system-performance", http.StatusOK},
		{model.RoleCEO, http.MethodPost, "/api/system-performance/snapshot", http.StatusForbidden},
		{model.RoleCEO, http.MethodGet, "/api/meal-logs?client_id=1", http.StatusForbidden},

		{model.RoleAthlete, http.MethodGet, "/api/athlete/bmi", http.StatusOK},
		{model.RoleAthlete, http.MethodGet, "/api/clients", http.StatusForbidden},

		{model.RoleSysAdmin, http.MethodGet, "/api/datasets", http.StatusOK},
		{model.RoleSysAdmin, http.MethodPost, "/api/system-performance/snapshot", http.StatusCreated},
		{model.RoleSysAdmin, http.MethodGet, "/api/accounts", http.StatusOK},
		{model.RoleSysAdmin, http.MethodGet, "/api/athlete/bmi", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+" "+tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+tokens[tt.role])
			rr := serve(srv, req)
			assert.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
		})
	}
}

func TestServer_AccountsAPI(t *testing.T) {
	srv := newAuthServer(t)
	token := login(t, srv, model.RoleSysAdmin)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/accounts", bytes.NewBufferString(body))
		req.Header.Set("Authorization", "Bearer "+token)
		return serve(srv, req)
	}

	rr := post(`{"email":"new@example.com","display_name":"New","role":"athlete","password":"` + testPassword + `"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = post(`{"email":"new@example.com","display_name":"Again","role":"athlete","password":"` + testPassword + `"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = post(`{"email":"x@example.com","display_name":"X","role":"client","password":"` + testPassword + `"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = serve(srv, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var accounts []model.Account
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &accounts))
	assert.Len(t, accounts, len(model.Roles)+1)
}

func TestNew_InvalidPolicyFile(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "test-secret-at-least-16-chars"
	cfg.PolicyFile = "/does/not/exist.hcl"

	_, err := New(cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role policy")
}

func TestNew_SnapshotScheduler(t *testing.T) {
	cfg := testConfig()
	cfg.SnapshotSchedule = "@hourly"

	srv, err := New(cfg, testLogger())
	require.NoError(t, err)
	defer srv.Close()

	require.NotNil(t, srv.snapshots)
	assert.True(t, srv.snapshots.Next().IsZero(), "scheduler must not run before Start")
}
