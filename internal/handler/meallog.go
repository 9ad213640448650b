package handler

import (
	"log/slog"
	"net/http"

	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/repository"
	"github.com/macromates/nutribuddy/internal/service"
)

// MealLogHandler serves /api/meal-logs.
type MealLogHandler struct {
	meals  *service.MealLogService
	logger *slog.Logger
}

func NewMealLogHandler(meals *service.MealLogService, logger *slog.Logger) *MealLogHandler {
	return &MealLogHandler{meals: meals, logger: logger}
}

type nutrientRequest struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Quantity *float64 `json:"quantity"`
	Unit     string   `json:"unit"`
}

func toNutrientInputs(in []nutrientRequest) []service.NutrientInput {
	out := make([]service.NutrientInput, len(in))
	for i, n := range in {
		out[i] = service.NutrientInput{Name: n.Name, Category: n.Category, Quantity: n.Quantity, Unit: n.Unit}
	}
	return out
}

// HandleList returns a client's meal logs with their nutrients, newest first.
//
// HTTP: GET /api/meal-logs?client_id=&date_from=&date_to=
func (h *MealLogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	clientID, err := requiredInt64(r, "client_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	from, to, err := queryDateRange(r, "date_from", "date_to")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	meals, err := h.meals.List(r.Context(), repository.MealLogFilter{ClientID: clientID, From: from, To: to})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

// HTTP: GET /api/meal-logs/daily-summary?client_id=&date=
func (h *MealLogHandler) HandleDailySummary(w http.ResponseWriter, r *http.Request) {
	clientID, err := requiredInt64(r, "client_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	day, err := queryDate(r, "date")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if day == nil {
		writeError(w, r, h.logger, apperror.ValidationFailed("date", "date parameter is required"))
		return
	}

	summary, err := h.meals.DailySummary(r.Context(), clientID, *day)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HTTP: GET /api/meal-logs/{id}
func (h *MealLogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	meal, err := h.meals.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

type createMealLogRequest struct {
	ClientID  int64             `json:"client_id"`
	Notes     *string           `json:"notes"`
	DateTime  *model.DateTime   `json:"datetime"`
	Nutrients []nutrientRequest `json:"nutrients"`
}

// HandleCreate stores a meal log and its nutrients together.
//
// HTTP: POST /api/meal-logs
// REQUEST BODY:
//
//	{
//	  "client_id": 1,
//	  "notes": "oats with berries",
//	  "datetime": "2024-06-01 08:15:00",
//	  "nutrients": [{"name": "Protein", "category": "macro", "quantity": 12, "unit": "g"}]
//	}
func (h *MealLogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createMealLogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	meal, err := h.meals.Create(r.Context(), service.MealLogInput{
		ClientID:  req.ClientID,
		Notes:     req.Notes,
		LoggedAt:  req.DateTime,
		Nutrients: toNutrientInputs(req.Nutrients),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{Message: "Meal log created successfully", ID: meal.ID})
}

// updateMealLogRequest keeps nutrients as Optional: a present list, even an
// empty one, replaces every stored nutrient.
type updateMealLogRequest struct {
	DateTime  *model.DateTime             `json:"datetime"`
	Notes     *string                     `json:"notes"`
	ClientID  *int64                      `json:"client_id"`
	Nutrients Optional[[]nutrientRequest] `json:"nutrients"`
}

// HTTP: PUT /api/meal-logs/{id}
func (h *MealLogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req updateMealLogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	update := service.MealLogUpdate{
		LoggedAt:         req.DateTime,
		Notes:            req.Notes,
		ClientID:         req.ClientID,
		ReplaceNutrients: req.Nutrients.Set,
	}
	if req.Nutrients.Value != nil {
		update.Nutrients = toNutrientInputs(*req.Nutrients.Value)
	}

	res, err := h.meals.Update(r.Context(), id, update)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HTTP: DELETE /api/meal-logs/{id}
func (h *MealLogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.meals.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Meal log deleted successfully"})
}
