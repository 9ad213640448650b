package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mealBody struct {
	ID        int64  `json:"id"`
	DateTime  string `json:"datetime"`
	Notes     string `json:"notes"`
	ClientID  int64  `json:"client_id"`
	Nutrients []struct {
		Name     string  `json:"name"`
		Category string  `json:"category"`
		Quantity float64 `json:"quantity"`
		Unit     string  `json:"unit"`
	} `json:"nutrients"`
}

func TestMealLogHandler_Create(t *testing.T) {
	api := newTestAPI(t)
	clientID := api.createClient("Ada", "ada@example.com", "")

	tests := []struct {
		name     string
		body     map[string]any
		wantCode int
	}{
		{
			name: "valid",
			body: map[string]any{
				"client_id": clientID, "notes": "oats", "datetime": "2024-06-01 08:15:00",
				"nutrients": []any{nutrient("Protein", "macro", 12, "g")},
			},
			wantCode: http.StatusCreated,
		},
		{
			name:     "datetime defaults to now",
			body:     map[string]any{"client_id": clientID, "notes": "snack"},
			wantCode: http.StatusCreated,
		},
		{
			name:     "missing notes",
			body:     map[string]any{"client_id": clientID},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing client_id",
			body:     map[string]any{"notes": "oats"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown client",
			body:     map[string]any{"client_id": 999, "notes": "oats"},
			wantCode: http.StatusNotFound,
		},
		{
			name: "incomplete nutrient",
			body: map[string]any{
				"client_id": clientID, "notes": "oats",
				"nutrients": []any{map[string]any{"name": "Protein", "quantity": 12}},
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad datetime",
			body:     map[string]any{"client_id": clientID, "notes": "oats", "datetime": "June 1st"},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(http.MethodPost, "/api/meal-logs", tt.body)
			assert.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
		})
	}
}

func TestMealLogHandler_ListAndGet(t *testing.T) {
	api := newTestAPI(t)
	clientID := api.createClient("Ada", "ada@example.com", "")
	first := api.createMeal(clientID, "2024-06-01 08:00:00", "breakfast", nutrient("Protein", "macro", 12, "g"))
	second := api.createMeal(clientID, "2024-06-02 12:30:00", "lunch",
		nutrient("Protein", "macro", 30, "g"), nutrient("Iron", "mineral", 4, "mg"))

	t.Run("client_id required", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/meal-logs", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "client_id parameter is required", decode[errorBody](t, rr).Error)
	})

	t.Run("newest first with nutrients", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/meal-logs?client_id="+id(clientID), nil)
		require.Equal(t, http.StatusOK, rr.Code)

		meals := decode[[]mealBody](t, rr)
		require.Len(t, meals, 2)
		assert.Equal(t, second, meals[0].ID)
		assert.Equal(t, "2024-06-02 12:30:00", meals[0].DateTime)
		assert.Len(t, meals[0].Nutrients, 2)
		assert.Equal(t, first, meals[1].ID)
	})

	t.Run("inclusive date range", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/meal-logs?client_id="+id(clientID)+"&date_from=2024-06-02&date_to=2024-06-02", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		meals := decode[[]mealBody](t, rr)
		require.Len(t, meals, 1)
		assert.Equal(t, second, meals[0].ID)
	})

	t.Run("get", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/meal-logs/"+id(first), nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "breakfast", decode[mealBody](t, rr).Notes)

		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/meal-logs/999", nil).Code)
	})
}

type summaryBody struct {
	MealsCount       int `json:"meals_count"`
	NutrientsSummary map[string][]struct {
		Name  string  `json:"name"`
		Total float64 `json:"total"`
		Unit  string  `json:"unit"`
	} `json:"nutrients_summary"`
	Message string `json:"message"`
}

func TestMealLogHandler_DailySummary(t *testing.T) {
	api := newTestAPI(t)
	clientID := api.createClient("Ada", "ada@example.com", "")
	api.createMeal(clientID, "2024-06-01 08:00:00", "breakfast", nutrient("Protein", "macro", 12, "g"))
	api.createMeal(clientID, "2024-06-01 19:00:00", "dinner",
		nutrient("Protein", "macro", 30, "g"), nutrient("Iron", "mineral", 4, "mg"))

	t.Run("both parameters required", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/meal-logs/daily-summary?client_id="+id(clientID), nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("totals by category", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/meal-logs/daily-summary?client_id="+id(clientID)+"&date=2024-06-01", nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		summary := decode[summaryBody](t, rr)

		assert.Equal(t, 2, summary.MealsCount)
		require.Len(t, summary.NutrientsSummary["macro"], 1)
		assert.Equal(t, 42.0, summary.NutrientsSummary["macro"][0].Total)
		require.Len(t, summary.NutrientsSummary["mineral"], 1)
		assert.Equal(t, "mg", summary.NutrientsSummary["mineral"][0].Unit)
		assert.Empty(t, summary.Message)
	})

	t.Run("empty day", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/meal-logs/daily-summary?client_id="+id(clientID)+"&date=2024-06-05", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		body := decode[map[string]any](t, rr)
		assert.EqualValues(t, 0, body["meals_count"])
		assert.Equal(t, "No meals recorded for this day", body["message"])
	})
}

func TestMealLogHandler_Update(t *testing.T) {
	api := newTestAPI(t)
	clientID := api.createClient("Ada", "ada@example.com", "")
	mealID := api.createMeal(clientID, "2024-06-01 08:00:00", "oats",
		nutrient("Protein", "macro", 12, "g"), nutrient("Fiber", "macro", 5, "g"))
	path := "/api/meal-logs/" + id(mealID)

	t.Run("no fields", func(t *testing.T) {
		rr := api.do(http.MethodPut, path, `{}`)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"updated":false,"message":"No fields to update"}`, rr.Body.String())
	})

	t.Run("notes only keeps nutrients", func(t *testing.T) {
		rr := api.do(http.MethodPut, path, `{"notes":"oats with berries"}`)
		require.Equal(t, http.StatusOK, rr.Code)

		meal := decode[mealBody](t, api.do(http.MethodGet, path, nil))
		assert.Equal(t, "oats with berries", meal.Notes)
		assert.Len(t, meal.Nutrients, 2)
	})

	t.Run("nutrients replace the set", func(t *testing.T) {
		rr := api.do(http.MethodPut, path, map[string]any{
			"nutrients": []any{nutrient("Vitamin C", "vitamin", 40, "mg")},
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		meal := decode[mealBody](t, api.do(http.MethodGet, path, nil))
		require.Len(t, meal.Nutrients, 1)
		assert.Equal(t, "Vitamin C", meal.Nutrients[0].Name)
	})

	t.Run("empty list clears nutrients", func(t *testing.T) {
		rr := api.do(http.MethodPut, path, `{"nutrients":[]}`)
		require.Equal(t, http.StatusOK, rr.Code)

		meal := decode[mealBody](t, api.do(http.MethodGet, path, nil))
		assert.Empty(t, meal.Nutrients)
	})

	t.Run("missing meal", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodPut, "/api/meal-logs/999", `{"notes":"x"}`).Code)
	})
}

func TestMealLogHandler_Delete(t *testing.T) {
	api := newTestAPI(t)
	clientID := api.createClient("Ada", "ada@example.com", "")
	mealID := api.createMeal(clientID, "2024-06-01 08:00:00", "oats", nutrient("Protein", "macro", 12, "g"))

	rr := api.do(http.MethodDelete, "/api/meal-logs/"+id(mealID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Meal log deleted successfully"}`, rr.Body.String())

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/meal-logs/"+id(mealID), nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/meal-logs/"+id(mealID), nil).Code)
}
