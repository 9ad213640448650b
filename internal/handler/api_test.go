package handler_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/macromates/nutribuddy/internal/config"
	"github.com/macromates/nutribuddy/internal/server"
)

// testAPI drives the full router over an in-memory SQLite store with
// authentication disabled. Role checks are covered in the server tests.
type testAPI struct {
	t       *testing.T
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	srv, err := server.New(config.Config{
		Port:     8080,
		DBDriver: config.DriverSQLite,
		DBPath:   ":memory:",
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	return &testAPI{t: t, handler: srv.Handler()}
}

// do sends body (a string is sent verbatim, anything else as JSON).
func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

// decode unmarshals the recorder body into T.
func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

type created struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// createClient posts a client and returns its id.
func (a *testAPI) createClient(name, email, dob string) int64 {
	a.t.Helper()
	body := map[string]any{"name": name, "email": email}
	if dob != "" {
		body["dob"] = dob
	}
	rr := a.do(http.MethodPost, "/api/clients", body)
	require.Equal(a.t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[created](a.t, rr).ID
}

// createMeal posts a meal log with nutrients and returns its id.
func (a *testAPI) createMeal(clientID int64, at, notes string, nutrients ...map[string]any) int64 {
	a.t.Helper()
	rr := a.do(http.MethodPost, "/api/meal-logs", map[string]any{
		"client_id": clientID,
		"notes":     notes,
		"datetime":  at,
		"nutrients": nutrients,
	})
	require.Equal(a.t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[created](a.t, rr).ID
}

func nutrient(name, category string, quantity float64, unit string) map[string]any {
	return map[string]any{"name": name, "category": category, "quantity": quantity, "unit": unit}
}

func id(n int64) string {
	return strconv.FormatInt(n, 10)
}
