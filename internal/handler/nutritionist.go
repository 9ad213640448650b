package handler

import (
	"log/slog"
	"net/http"

	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/service"
)

// NutritionistHandler serves /api/nutritionist and the nutrient targets the
// deficiency report compares against.
type NutritionistHandler struct {
	nutritionist *service.NutritionistService
	logger       *slog.Logger
}

func NewNutritionistHandler(nutritionist *service.NutritionistService, logger *slog.Logger) *NutritionistHandler {
	return &NutritionistHandler{nutritionist: nutritionist, logger: logger}
}

// HTTP: GET /api/nutritionist/dashboard
func (h *NutritionistHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.nutritionist.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// HTTP: GET /api/nutritionist/clients
func (h *NutritionistHandler) HandleClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.nutritionist.Clients(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

// HTTP: GET /api/nutritionist/clients/{id}
func (h *NutritionistHandler) HandleClientDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	detail, err := h.nutritionist.ClientDetail(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HTTP: GET /api/nutritionist/clients/{id}/progress
func (h *NutritionistHandler) HandleClientProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	progress, err := h.nutritionist.ClientProgress(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// HTTP: GET /api/nutritionist/clients/{id}/nutrition?date_from=&date_to=
func (h *NutritionistHandler) HandleClientNutrition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	from, to, err := queryDateRange(r, "date_from", "date_to")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	nutrition, err := h.nutritionist.ClientNutrition(r.Context(), id, from, to)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nutrition)
}

// HTTP: GET /api/nutrient-targets
func (h *NutritionistHandler) HandleListTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.nutritionist.Targets(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, targets)
}

// HandleSetTarget creates or replaces the target of one nutrient.
//
// HTTP: PUT /api/nutrient-targets
// REQUEST BODY: {"nutrient_name": "iron", "recommended_amount": 18, "unit": "mg"}
func (h *NutritionistHandler) HandleSetTarget(w http.ResponseWriter, r *http.Request) {
	var req model.NutrientTarget
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	target, err := h.nutritionist.SetTarget(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, target)
}
