package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type datasetBody struct {
	ID          int64  `json:"id"`
	Name        string `json:"dataset_name"`
	Description string `json:"data_description"`
	Status      string `json:"status"`
}

func TestAdminHandler_Datasets(t *testing.T) {
	api := newTestAPI(t)

	t.Run("create requires every field", func(t *testing.T) {
		rr := api.do(http.MethodPost, "/api/datasets", `{"dataset_name":"Foods"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	rr := api.do(http.MethodPost, "/api/datasets", map[string]any{
		"dataset_name":     "USDA foods",
		"data_description": "reference nutrient values",
		"status":           "active",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	res := decode[created](t, rr)
	assert.Equal(t, "Dataset created successfully", res.Message)
	path := "/api/datasets/" + id(res.ID)

	t.Run("list", func(t *testing.T) {
		list := decode[[]datasetBody](t, api.do(http.MethodGet, "/api/datasets", nil))
		require.Len(t, list, 1)
		assert.Equal(t, "USDA foods", list[0].Name)
	})

	t.Run("update ignores empty strings", func(t *testing.T) {
		rr := api.do(http.MethodPut, path, `{"status":"archived","data_description":""}`)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"updated":true,"message":"Dataset updated successfully"}`, rr.Body.String())

		d := decode[datasetBody](t, api.do(http.MethodGet, path, nil))
		assert.Equal(t, "archived", d.Status)
		assert.Equal(t, "reference nutrient values", d.Description)
	})

	t.Run("delete", func(t *testing.T) {
		rr := api.do(http.MethodDelete, path, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message":"Dataset `+id(res.ID)+` deleted successfully"}`, rr.Body.String())

		assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, nil).Code)
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, nil).Code)
	})
}

func TestAdminHandler_Performance(t *testing.T) {
	api := newTestAPI(t)

	t.Run("metric required", func(t *testing.T) {
		rr := api.do(http.MethodPost, "/api/system-performance", `{"System_Status":"Operational"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	for _, ts := range []string{"2024-06-02 09:00:00", "2024-06-01 09:00:00"} {
		rr := api.do(http.MethodPost, "/api/system-performance", map[string]any{
			"Performance_Metric": "uptime",
			"System_Status":      "Operational",
			"Existing_Clients":   10,
			"New_Clients":        2,
			"Timestamp":          ts,
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	t.Run("oldest first", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/system-performance", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		samples := decode[[]map[string]any](t, rr)
		require.Len(t, samples, 2)
		assert.Equal(t, "2024-06-01 09:00:00", samples[0]["Timestamp"])
		assert.Equal(t, "uptime", samples[0]["Performance_Metric"])
	})

	t.Run("date range", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/system-performance?from_date=2024-06-02&to_date=2024-06-02", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decode[[]map[string]any](t, rr), 1)
	})

	t.Run("manual snapshot", func(t *testing.T) {
		api.createClient("Ada", "ada@example.com", "")

		rr := api.do(http.MethodPost, "/api/system-performance/snapshot", nil)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		sample := decode[map[string]any](t, rr)
		assert.Equal(t, "client_snapshot", sample["Performance_Metric"])
		assert.Equal(t, "Operational", sample["System_Status"])
		assert.EqualValues(t, 1, sample["New_Clients"])
	})
}

func TestAdminHandler_Reports(t *testing.T) {
	api := newTestAPI(t)

	t.Run("index", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/ceo", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		body := decode[map[string][]string](t, rr)
		assert.Contains(t, body["reports"], "key_metrics")
		assert.Contains(t, body["reports"], "user_traffic")
	})

	t.Run("known report", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/ceo/revenue_trend", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("unknown report", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/ceo/payroll", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "not_found", decode[errorBody](t, rr).Code)
	})
}

func TestIndex(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "Welcome")
}
