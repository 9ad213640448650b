package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/nutrition"
	"github.com/macromates/nutribuddy/internal/repository"
)

const MaxClientNameLength = 200

// ClientInput is the payload of a client onboarding request.
type ClientInput struct {
	Name  string
	Email string
	DOB   *model.Date
}

// DeleteResult tells the caller whether a delete was turned into an archive.
type DeleteResult struct {
	Archived bool
}

// ClientService manages client records and the client statistics the
// administrator dashboard shows.
type ClientService struct {
	clients repository.ClientRepository
	perf    repository.PerformanceRepository
	logger  *slog.Logger
	clock   clock
}

func NewClientService(clients repository.ClientRepository, perf repository.PerformanceRepository, logger *slog.Logger) *ClientService {
	return &ClientService{clients: clients, perf: perf, logger: logger}
}

func (s *ClientService) List(ctx context.Context, filter repository.ClientFilter) ([]model.Client, error) {
	filter.Name = strings.TrimSpace(filter.Name)
	filter.Email = strings.TrimSpace(filter.Email)
	return s.clients.ListClients(ctx, filter)
}

// Search lists clients with their current age. Age bounds are inclusive and
// exclude clients whose date of birth is unknown.
func (s *ClientService) Search(ctx context.Context, name, email string, minAge, maxAge *int) ([]model.ClientSearchResult, error) {
	if minAge != nil && *minAge < 0 {
		return nil, apperror.ValidationFailed("min_age", "min_age must not be negative")
	}
	if maxAge != nil && *maxAge < 0 {
		return nil, apperror.ValidationFailed("max_age", "max_age must not be negative")
	}
	if minAge != nil && maxAge != nil && *minAge > *maxAge {
		return nil, apperror.ValidationFailed("min_age", "min_age must not exceed max_age")
	}

	today := s.clock.today()
	bornOnOrBefore, bornAfter := nutrition.DOBBounds(today, minAge, maxAge)

	clients, err := s.List(ctx, repository.ClientFilter{
		Name:           name,
		Email:          email,
		BornOnOrBefore: bornOnOrBefore,
		BornAfter:      bornAfter,
	})
	if err != nil {
		return nil, err
	}

	results := make([]model.ClientSearchResult, len(clients))
	for i, c := range clients {
		results[i] = model.ClientSearchResult{Client: c}
		if c.DOB != nil {
			age := nutrition.Age(*c.DOB, today)
			results[i].Age = &age
		}
	}
	return results, nil
}

func (s *ClientService) Get(ctx context.Context, id int64) (*model.Client, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	return s.clients.GetClient(ctx, id)
}

// Create onboards a client. Name and email are required; the email must not
// be used by any other client, archived ones included.
func (s *ClientService) Create(ctx context.Context, in ClientInput) (*model.Client, error) {
	if err := validateClientName(&in.Name); err != nil {
		return nil, err
	}
	if err := validateEmail(&in.Email); err != nil {
		return nil, err
	}
	if in.DOB != nil && in.DOB.After(s.clock.today().Time) {
		return nil, apperror.ValidationFailed("dob", "dob must not be in the future")
	}

	client := &model.Client{Name: in.Name, Email: in.Email, DOB: in.DOB}
	if err := s.clients.CreateClient(ctx, client); err != nil {
		return nil, err
	}

	s.logger.Info("client created",
		slog.Int64("id", client.ID),
		slog.String("email", client.Email),
	)
	return client, nil
}

// Update applies a partial update. A missing client is reported before an
// empty payload so callers can tell the two apart.
func (s *ClientService) Update(ctx context.Context, id int64, patch repository.ClientPatch) (UpdateResult, error) {
	if err := requireID("id", id); err != nil {
		return UpdateResult{}, err
	}
	if patch.Name != nil {
		if err := validateClientName(patch.Name); err != nil {
			return UpdateResult{}, err
		}
	}
	if patch.Email != nil {
		if err := validateEmail(patch.Email); err != nil {
			return UpdateResult{}, err
		}
	}
	if patch.SetDOB && patch.DOB != nil && patch.DOB.After(s.clock.today().Time) {
		return UpdateResult{}, apperror.ValidationFailed("dob", "dob must not be in the future")
	}

	changed, err := s.clients.UpdateClient(ctx, id, patch)
	if err != nil {
		return UpdateResult{}, err
	}
	if patch.Empty() {
		return noFieldsResult(), nil
	}
	if changed {
		s.logger.Info("client updated", slog.Int64("id", id))
	}
	return updatedResult(changed, "Client"), nil
}

// Delete removes a client without dependent rows and archives one with them.
func (s *ClientService) Delete(ctx context.Context, id int64) (DeleteResult, error) {
	if err := requireID("id", id); err != nil {
		return DeleteResult{}, err
	}

	archived, err := s.clients.DeleteClient(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}

	if archived {
		s.logger.Info("client archived", slog.Int64("id", id))
	} else {
		s.logger.Info("client deleted", slog.Int64("id", id))
	}
	return DeleteResult{Archived: archived}, nil
}

func (s *ClientService) Restore(ctx context.Context, id int64) (*model.Client, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	if err := s.clients.RestoreClient(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("client restored", slog.Int64("id", id))
	return s.clients.GetClient(ctx, id)
}

// Stats summarises client counts for a date range. The range defaults to
// the first day of the current month through today. New clients are the sum
// of the performance samples recorded in the range; everyone else counts as
// existing.
func (s *ClientService) Stats(ctx context.Context, from, to *model.Date) (*model.ClientStats, error) {
	today := s.clock.today()
	if from == nil {
		first := today.AddDays(1 - today.Day())
		from = &first
	}
	if to == nil {
		to = &today
	}
	if err := checkRange(from, to, "from_date"); err != nil {
		return nil, err
	}

	total, err := s.clients.CountClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting clients: %w", err)
	}

	samples, err := s.perf.ListPerformance(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading performance samples: %w", err)
	}

	stats := &model.ClientStats{
		TotalClients: total,
		TrendData:    make([]model.ClientTrendPoint, 0, len(samples)),
	}
	for _, sample := range samples {
		stats.NewClients += sample.NewClients
		stats.TrendData = append(stats.TrendData, model.ClientTrendPoint{
			Date:            sample.RecordedAt.Day(),
			ExistingClients: sample.ExistingClients,
			NewClients:      sample.NewClients,
		})
	}
	// Hard deletes can leave more new clients on record than exist today.
	stats.ExistingClients = max(total-stats.NewClients, 0)
	return stats, nil
}

func validateClientName(name *string) error {
	if !trimmedPtr(name) {
		return apperror.ValidationFailed("name", "name is required")
	}
	if len(*name) > MaxClientNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxClientNameLength))
	}
	return nil
}

func validateEmail(email *string) error {
	if !trimmedPtr(email) {
		return apperror.ValidationFailed("email", "email is required")
	}
	if at := strings.Index(*email, "@"); at <= 0 || at == len(*email)-1 {
		return apperror.ValidationFailed("email", "email must be a valid address")
	}
	return nil
}
