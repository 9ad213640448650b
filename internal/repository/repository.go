// Package repository declares the persistence contracts the services depend on.
//
// Filters and patches are typed: a nil pointer means "not supplied", so the
// implementation only builds predicates and SET clauses for fields the caller
// actually provided.
package repository

import (
	"context"
	"time"

	"github.com/macromates/nutribuddy/internal/model"
)

// ClientFilter narrows a client listing. Zero values are ignored.
type ClientFilter struct {
	Name     string // case-insensitive substring
	Email    string // case-insensitive substring
	Archived *bool

	// Age bounds expressed as date-of-birth bounds. Clients without a DOB
	// never match when either bound is set.
	BornOnOrBefore *model.Date
	BornAfter      *model.Date
}

// ClientPatch carries the fields of a partial client update.
type ClientPatch struct {
	Name   *string
	Email  *string
	SetDOB bool        // DOB was present in the payload
	DOB    *model.Date // nil with SetDOB clears the date of birth
}

func (p ClientPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && !p.SetDOB
}

type ClientRepository interface {
	CreateClient(ctx context.Context, client *model.Client) error
	GetClient(ctx context.Context, id int64) (*model.Client, error)
	ListClients(ctx context.Context, filter ClientFilter) ([]model.Client, error)
	// UpdateClient reports whether any stored value actually changed.
	UpdateClient(ctx context.Context, id int64, patch ClientPatch) (bool, error)
	// DeleteClient archives the client instead when dependent rows exist and
	// reports which of the two happened.
	DeleteClient(ctx context.Context, id int64) (archived bool, err error)
	RestoreClient(ctx context.Context, id int64) error
	CountClients(ctx context.Context) (int64, error)
	CountClientsCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

// MealLogFilter selects one client's meal logs, optionally within an
// inclusive day range.
type MealLogFilter struct {
	ClientID int64
	From     *model.Date
	To       *model.Date
}

type MealLogPatch struct {
	LoggedAt         *model.DateTime
	Notes            *string
	ClientID         *int64
	Nutrients        []model.Nutrient // replaces every nutrient when ReplaceNutrients is set
	ReplaceNutrients bool
}

func (p MealLogPatch) Empty() bool {
	return p.LoggedAt == nil && p.Notes == nil && p.ClientID == nil && !p.ReplaceNutrients
}

type MealLogRepository interface {
	CreateMealLog(ctx context.Context, meal *model.MealLog) error
	GetMealLog(ctx context.Context, id int64) (*model.MealLog, error)
	// ListMealLogs returns logs newest first, each with its nutrients.
	ListMealLogs(ctx context.Context, filter MealLogFilter) ([]model.MealLog, error)
	UpdateMealLog(ctx context.Context, id int64, patch MealLogPatch) error
	DeleteMealLog(ctx context.Context, id int64) error
	// DailyNutrientTotals sums nutrients by (category, name, unit) over every
	// meal the client logged on day.
	DailyNutrientTotals(ctx context.Context, clientID int64, day model.Date) (meals int, totals []model.NutrientTotal, err error)
}

type PlanRepository interface {
	CreateNutritionPlan(ctx context.Context, plan *model.NutritionPlan) error
	ListNutritionPlans(ctx context.Context, clientID int64) ([]model.NutritionPlan, error)
	CreateProgressReport(ctx context.Context, report *model.ProgressReport) error
	// ListProgressReports returns reports newest first.
	ListProgressReports(ctx context.Context, clientID int64) ([]model.ProgressReport, error)
	UpsertNutrientTarget(ctx context.Context, target model.NutrientTarget) error
	ListNutrientTargets(ctx context.Context) ([]model.NutrientTarget, error)
}

type DatasetPatch struct {
	Name        *string
	Description *string
	Status      *string
}

func (p DatasetPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Status == nil
}

type DatasetRepository interface {
	CreateDataset(ctx context.Context, dataset *model.Dataset) error
	GetDataset(ctx context.Context, id int64) (*model.Dataset, error)
	ListDatasets(ctx context.Context) ([]model.Dataset, error)
	UpdateDataset(ctx context.Context, id int64, patch DatasetPatch) (bool, error)
	DeleteDataset(ctx context.Context, id int64) error
}

type PerformanceRepository interface {
	RecordPerformance(ctx context.Context, sample *model.PerformanceSample) error
	// ListPerformance returns samples oldest first; a nil bound is open.
	ListPerformance(ctx context.Context, from, to *model.Date) ([]model.PerformanceSample, error)
	LatestPerformance(ctx context.Context) (*model.PerformanceSample, error)
}

type ReportRepository interface {
	Report(ctx context.Context, name string) ([]model.ReportRow, error)
	ReportNames() []string
}

type AthleteRepository interface {
	ListAthletes(ctx context.Context) ([]model.Athlete, error)
	PlanIntakeTotals(ctx context.Context) ([]model.PlanIntakeTotals, error)
	DailyMacros(ctx context.Context, athleteID int64) ([]model.DailyMacros, error)
	PlanIntake(ctx context.Context, athleteID *int64) ([]model.PlanIntake, error)
	Reminders(ctx context.Context, athleteID int64) ([]model.Reminder, error)
}

type NutritionistRepository interface {
	// RecentClientActivity returns the limit clients with the latest meal,
	// clients without meals last.
	RecentClientActivity(ctx context.Context, limit int) ([]model.ClientActivity, error)
	ClientOverviews(ctx context.Context, calorieNames []string) ([]model.ClientOverview, error)
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	GetAccountByGitHubID(ctx context.Context, githubID int64) (*model.Account, error)
	LinkGitHub(ctx context.Context, accountID string, githubID int64) error
	ListAccounts(ctx context.Context) ([]model.Account, error)
}
