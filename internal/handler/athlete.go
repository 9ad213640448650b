package handler

import (
	"log/slog"
	"net/http"

	"github.com/macromates/nutribuddy/internal/service"
)

// AthleteHandler serves the student athlete dashboard under /api/athlete.
type AthleteHandler struct {
	athletes *service.AthleteService
	logger   *slog.Logger
}

func NewAthleteHandler(athletes *service.AthleteService, logger *slog.Logger) *AthleteHandler {
	return &AthleteHandler{athletes: athletes, logger: logger}
}

// HTTP: GET /api/athlete/bmi
func (h *AthleteHandler) HandleBMI(w http.ResponseWriter, r *http.Request) {
	rows, err := h.athletes.BMI(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HTTP: GET /api/athlete/maintenance_calories
func (h *AthleteHandler) HandleMaintenanceCalories(w http.ResponseWriter, r *http.Request) {
	rows, err := h.athletes.MaintenanceCalories(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HTTP: GET /api/athlete/weight_change
func (h *AthleteHandler) HandleWeightChange(w http.ResponseWriter, r *http.Request) {
	rows, err := h.athletes.WeightChange(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HTTP: GET /api/athlete/daily_macro_breakdown?athlete_id=
func (h *AthleteHandler) HandleDailyMacroBreakdown(w http.ResponseWriter, r *http.Request) {
	athleteID, err := requiredInt64(r, "athlete_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rows, err := h.athletes.DailyMacroBreakdown(r.Context(), athleteID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandlePlanIntake lists meals eaten during workout plans. Without
// athlete_id every athlete is included.
//
// HTTP: GET /api/athlete/workout_plan_intake?athlete_id=
func (h *AthleteHandler) HandlePlanIntake(w http.ResponseWriter, r *http.Request) {
	athleteID, err := queryInt64(r, "athlete_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rows, err := h.athletes.PlanIntake(r.Context(), athleteID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HTTP: GET /api/athlete/reminders?athlete_id=
func (h *AthleteHandler) HandleReminders(w http.ResponseWriter, r *http.Request) {
	athleteID, err := requiredInt64(r, "athlete_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rows, err := h.athletes.Reminders(r.Context(), athleteID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
