package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/repository"
)

type DatasetService struct {
	datasets repository.DatasetRepository
	logger   *slog.Logger
}

func NewDatasetService(datasets repository.DatasetRepository, logger *slog.Logger) *DatasetService {
	return &DatasetService{datasets: datasets, logger: logger}
}

func (s *DatasetService) List(ctx context.Context) ([]model.Dataset, error) {
	return s.datasets.ListDatasets(ctx)
}

func (s *DatasetService) Get(ctx context.Context, id int64) (*model.Dataset, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	return s.datasets.GetDataset(ctx, id)
}

// Create requires all three fields.
func (s *DatasetService) Create(ctx context.Context, name, description, status string) (*model.Dataset, error) {
	d := &model.Dataset{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Status:      strings.TrimSpace(status),
	}
	if d.Name == "" || d.Description == "" || d.Status == "" {
		return nil, apperror.ValidationFailed("dataset_name",
			"dataset_name, data_description and status are required")
	}

	if err := s.datasets.CreateDataset(ctx, d); err != nil {
		return nil, err
	}
	s.logger.Info("dataset created", slog.Int64("id", d.ID), slog.String("name", d.Name))
	return d, nil
}

// Update ignores fields supplied as empty strings.
func (s *DatasetService) Update(ctx context.Context, id int64, patch repository.DatasetPatch) (UpdateResult, error) {
	if err := requireID("id", id); err != nil {
		return UpdateResult{}, err
	}
	for _, f := range []**string{&patch.Name, &patch.Description, &patch.Status} {
		if *f != nil && !trimmedPtr(*f) {
			*f = nil
		}
	}

	changed, err := s.datasets.UpdateDataset(ctx, id, patch)
	if err != nil {
		return UpdateResult{}, err
	}
	if patch.Empty() {
		return noFieldsResult(), nil
	}
	if changed {
		s.logger.Info("dataset updated", slog.Int64("id", id))
	}
	return updatedResult(changed, "Dataset"), nil
}

func (s *DatasetService) Delete(ctx context.Context, id int64) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	if err := s.datasets.DeleteDataset(ctx, id); err != nil {
		return err
	}
	s.logger.Info("dataset deleted", slog.Int64("id", id))
	return nil
}

// Pinger is the part of the store the snapshot checks for health.
type Pinger interface {
	Ping(ctx context.Context) error
}

const (
	SnapshotMetric    = "client_snapshot"
	StatusOperational = "Operational"
	StatusDegraded    = "Degraded"
)

// PerformanceService records and lists system performance samples.
type PerformanceService struct {
	perf    repository.PerformanceRepository
	clients repository.ClientRepository
	store   Pinger
	logger  *slog.Logger
	clock   clock
}

func NewPerformanceService(perf repository.PerformanceRepository, clients repository.ClientRepository, store Pinger, logger *slog.Logger) *PerformanceService {
	return &PerformanceService{perf: perf, clients: clients, store: store, logger: logger}
}

// List returns samples oldest first within an optional inclusive day range.
func (s *PerformanceService) List(ctx context.Context, from, to *model.Date) ([]model.PerformanceSample, error) {
	if err := checkRange(from, to, "from_date"); err != nil {
		return nil, err
	}
	return s.perf.ListPerformance(ctx, from, to)
}

// Record appends a sample supplied by a caller. Metric is required and
// client counts must not be negative.
func (s *PerformanceService) Record(ctx context.Context, sample model.PerformanceSample) (*model.PerformanceSample, error) {
	sample.Metric = strings.TrimSpace(sample.Metric)
	sample.Status = strings.TrimSpace(sample.Status)
	if sample.Metric == "" {
		return nil, apperror.ValidationFailed("Performance_Metric", "Performance_Metric is required")
	}
	if sample.ExistingClients < 0 || sample.NewClients < 0 {
		return nil, apperror.ValidationFailed("New_Clients", "client counts must not be negative")
	}
	if sample.Status == "" {
		sample.Status = StatusOperational
	}

	if err := s.perf.RecordPerformance(ctx, &sample); err != nil {
		return nil, err
	}
	return &sample, nil
}

// Snapshot measures the system now and appends the result. New clients are
// those created since the previous sample (or in the last 24 hours when
// there is none). The status is Degraded when the store does not answer a
// ping promptly.
func (s *PerformanceService) Snapshot(ctx context.Context) (*model.PerformanceSample, error) {
	now := s.clock.now()

	status := StatusOperational
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	start := time.Now()
	err := s.store.Ping(pingCtx)
	cancel()
	if err != nil || time.Since(start) > time.Second {
		status = StatusDegraded
		s.logger.Warn("snapshot: store is slow or unreachable", slog.Any("error", err))
	}

	since := now.Add(-24 * time.Hour)
	last, err := s.perf.LatestPerformance(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading latest sample: %w", err)
	}
	if last != nil {
		since = last.RecordedAt.Time
	}

	total, err := s.clients.CountClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting clients: %w", err)
	}
	added, err := s.clients.CountClientsCreatedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("counting new clients: %w", err)
	}

	sample := &model.PerformanceSample{
		Metric:          SnapshotMetric,
		Status:          status,
		ExistingClients: total - added,
		NewClients:      added,
		RecordedAt:      model.NewDateTime(now),
	}
	if err := s.perf.RecordPerformance(ctx, sample); err != nil {
		return nil, err
	}

	s.logger.Info("performance snapshot recorded",
		slog.String("status", status),
		slog.Int64("existingClients", sample.ExistingClients),
		slog.Int64("newClients", sample.NewClients),
	)
	return sample, nil
}

// ReportService serves the precomputed reporting tables.
type ReportService struct {
	reports repository.ReportRepository
}

func NewReportService(reports repository.ReportRepository) *ReportService {
	return &ReportService{reports: reports}
}

func (s *ReportService) Get(ctx context.Context, name string) ([]model.ReportRow, error) {
	return s.reports.Report(ctx, name)
}

func (s *ReportService) Names() []string {
	return s.reports.ReportNames()
}
