package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/repository"
	"github.com/macromates/nutribuddy/internal/service"
)

// AdminHandler serves the system administrator's datasets and performance
// samples, and the CEO's reporting tables.
type AdminHandler struct {
	datasets    *service.DatasetService
	performance *service.PerformanceService
	reports     *service.ReportService
	logger      *slog.Logger
}

func NewAdminHandler(
	datasets *service.DatasetService,
	performance *service.PerformanceService,
	reports *service.ReportService,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{datasets: datasets, performance: performance, reports: reports, logger: logger}
}

// HTTP: GET /api/datasets
func (h *AdminHandler) HandleListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.datasets.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, datasets)
}

// HTTP: GET /api/datasets/{id}
func (h *AdminHandler) HandleGetDataset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	dataset, err := h.datasets.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dataset)
}

type datasetRequest struct {
	Name        *string `json:"dataset_name"`
	Description *string `json:"data_description"`
	Status      *string `json:"status"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// HTTP: POST /api/datasets
func (h *AdminHandler) HandleCreateDataset(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	dataset, err := h.datasets.Create(r.Context(), deref(req.Name), deref(req.Description), deref(req.Status))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{Message: "Dataset created successfully", ID: dataset.ID})
}

// HTTP: PUT /api/datasets/{id}
func (h *AdminHandler) HandleUpdateDataset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req datasetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.datasets.Update(r.Context(), id, repository.DatasetPatch{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HTTP: DELETE /api/datasets/{id}
func (h *AdminHandler) HandleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.datasets.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Dataset %d deleted successfully", id)})
}

// HandleListPerformance returns samples oldest first.
//
// HTTP: GET /api/system-performance?from_date=&to_date=
func (h *AdminHandler) HandleListPerformance(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryDateRange(r, "from_date", "to_date")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	samples, err := h.performance.List(r.Context(), from, to)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, samples)
}

type performanceRequest struct {
	Metric          string          `json:"Performance_Metric"`
	Status          string          `json:"System_Status"`
	ExistingClients int64           `json:"Existing_Clients"`
	NewClients      int64           `json:"New_Clients"`
	Timestamp       *model.DateTime `json:"Timestamp"`
}

// HTTP: POST /api/system-performance
func (h *AdminHandler) HandleRecordPerformance(w http.ResponseWriter, r *http.Request) {
	var req performanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	sample := model.PerformanceSample{
		Metric:          req.Metric,
		Status:          req.Status,
		ExistingClients: req.ExistingClients,
		NewClients:      req.NewClients,
	}
	if req.Timestamp != nil {
		sample.RecordedAt = *req.Timestamp
	}

	recorded, err := h.performance.Record(r.Context(), sample)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, recorded)
}

// HTTP: POST /api/system-performance/snapshot
func (h *AdminHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	sample, err := h.performance.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sample)
}

// HandleListReports names the reports available under /api/ceo.
//
// HTTP: GET /api/ceo
func (h *AdminHandler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"reports": h.reports.Names()})
}

// HTTP: GET /api/ceo/{report}
func (h *AdminHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.Get(r.Context(), chi.URLParam(r, "report"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
