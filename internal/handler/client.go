package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/repository"
	"github.com/macromates/nutribuddy/internal/service"
)

// createdResponse answers a successful POST with the new row's id.
type createdResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type deleteClientResponse struct {
	Message           string `json:"message"`
	Archived          bool   `json:"archived"`
	HasAssociatedData bool   `json:"has_associated_data"`
}

// ClientHandler serves /api/clients and the plans and progress reports that
// belong to a client.
type ClientHandler struct {
	clients *service.ClientService
	plans   *service.PlanService
	logger  *slog.Logger
}

func NewClientHandler(clients *service.ClientService, plans *service.PlanService, logger *slog.Logger) *ClientHandler {
	return &ClientHandler{clients: clients, plans: plans, logger: logger}
}

// HandleList returns every client matching the optional name, email and
// archived filters.
//
// HTTP: GET /api/clients?name=&email=&archived=
func (h *ClientHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	archived, err := queryBool(r, "archived")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	clients, err := h.clients.List(r.Context(), repository.ClientFilter{
		Name:     queryString(r, "name"),
		Email:    queryString(r, "email"),
		Archived: archived,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

// HandleSearch is HandleList with an inclusive age range and each client's
// computed age.
//
// HTTP: GET /api/clients/search?name=&email=&min_age=&max_age=
func (h *ClientHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	minAge, err := queryInt(r, "min_age")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	maxAge, err := queryInt(r, "max_age")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	results, err := h.clients.Search(r.Context(), queryString(r, "name"), queryString(r, "email"), minAge, maxAge)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// HandleStats summarises new and existing clients over a date range.
//
// HTTP: GET /api/clients/stats?from_date=&to_date=
func (h *ClientHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryDateRange(r, "from_date", "to_date")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	stats, err := h.clients.Stats(r.Context(), from, to)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HTTP: GET /api/clients/{id}
func (h *ClientHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	client, err := h.clients.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

type createClientRequest struct {
	Name  string      `json:"name"`
	Email string      `json:"email"`
	DOB   *model.Date `json:"dob"`
}

// HTTP: POST /api/clients
// REQUEST BODY: {"name": "Ada", "email": "ada@example.com", "dob": "1990-04-12"}
func (h *ClientHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	client, err := h.clients.Create(r.Context(), service.ClientInput{
		Name:  req.Name,
		Email: req.Email,
		DOB:   req.DOB,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{Message: "Client created successfully", ID: client.ID})
}

// updateClientRequest uses Optional for dob so that "dob": null clears the
// date while an omitted dob leaves it alone.
type updateClientRequest struct {
	Name  *string              `json:"name"`
	Email *string              `json:"email"`
	DOB   Optional[model.Date] `json:"dob"`
}

// HTTP: PUT /api/clients/{id}
func (h *ClientHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req updateClientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.clients.Update(r.Context(), id, repository.ClientPatch{
		Name:   req.Name,
		Email:  req.Email,
		SetDOB: req.DOB.Set,
		DOB:    req.DOB.Value,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleDelete removes the client, or archives it when meal logs, plans or
// progress reports still reference it.
//
// HTTP: DELETE /api/clients/{id}
func (h *ClientHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.clients.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	body := deleteClientResponse{Message: "Client deleted successfully"}
	if res.Archived {
		body = deleteClientResponse{
			Message:           "Client has associated data and was archived instead of deleted",
			Archived:          true,
			HasAssociatedData: true,
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// HTTP: POST /api/clients/{id}/restore
func (h *ClientHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	client, err := h.clients.Restore(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// HTTP: GET /api/clients/{id}/nutrition-plans
func (h *ClientHandler) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	plans, err := h.plans.ListPlans(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

type createPlanRequest struct {
	Title         string      `json:"title"`
	DailyCalories float64     `json:"daily_calories"`
	StartDate     *model.Date `json:"start_date"`
	EndDate       *model.Date `json:"end_date"`
}

// HTTP: POST /api/clients/{id}/nutrition-plans
func (h *ClientHandler) HandleCreatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req createPlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	plan := model.NutritionPlan{
		ClientID:      id,
		Title:         req.Title,
		DailyCalories: req.DailyCalories,
		EndDate:       req.EndDate,
	}
	if req.StartDate != nil {
		plan.StartDate = *req.StartDate
	}

	created, err := h.plans.CreatePlan(r.Context(), plan)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{Message: "Nutrition plan created successfully", ID: created.ID})
}

// HTTP: GET /api/clients/{id}/progress-reports
func (h *ClientHandler) HandleListProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	reports, err := h.plans.ListProgressReports(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

type createProgressRequest struct {
	Date       *model.Date `json:"date"`
	Weight     float64     `json:"weight"`
	BodyFatPct *float64    `json:"body_fat_percentage"`
	Notes      string      `json:"notes"`
}

// HTTP: POST /api/clients/{id}/progress-reports
func (h *ClientHandler) HandleCreateProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req createProgressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	report := model.ProgressReport{
		ClientID:   id,
		WeightKg:   req.Weight,
		BodyFatPct: req.BodyFatPct,
		Notes:      req.Notes,
	}
	if req.Date != nil {
		report.ReportDate = *req.Date
	}

	created, err := h.plans.CreateProgressReport(r.Context(), report)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{
		Message: fmt.Sprintf("Progress report for client %d created successfully", id),
		ID:      created.ID,
	})
}
