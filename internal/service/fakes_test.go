package service

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/repository"
)

// fakeStore is an in-memory implementation of every repository interface
// the services use. It keeps just enough behaviour for the rules under test;
// SQL specifics are covered by the sqlstore tests.
type fakeStore struct {
	clients   map[int64]*model.Client
	meals     map[int64]*model.MealLog
	datasets  map[int64]*model.Dataset
	samples   []model.PerformanceSample
	plans     []model.NutritionPlan
	progress  []model.ProgressReport
	targets   map[string]model.NutrientTarget
	accounts  map[string]*model.Account
	athletes  []model.Athlete
	intake    []model.PlanIntakeTotals
	macros    []model.DailyMacros
	reminders []model.Reminder
	reports   map[string][]model.ReportRow

	nextID  int64
	pingErr error
	created map[int64]time.Time // client creation times

	// updates counts writes that reached the store.
	updates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clients:  map[int64]*model.Client{},
		meals:    map[int64]*model.MealLog{},
		datasets: map[int64]*model.Dataset{},
		targets:  map[string]model.NutrientTarget{},
		accounts: map[string]*model.Account{},
		reports:  map[string][]model.ReportRow{},
		created:  map[int64]time.Time{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func fixedClock(t *testing.T, value string) clock {
	t.Helper()
	now, err := time.Parse(model.DateTimeLayout, value)
	if err != nil {
		t.Fatalf("parsing clock %q: %v", value, err)
	}
	return func() time.Time { return now }
}

func mustDate(t *testing.T, s string) *model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return &d
}

func mustDateTime(t *testing.T, s string) *model.DateTime {
	t.Helper()
	dt, err := model.ParseDateTime(s)
	if err != nil {
		t.Fatalf("ParseDateTime(%q): %v", s, err)
	}
	return &dt
}

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func int64Ptr(i int64) *int64     { return &i }
func floatPtr(f float64) *float64 { return &f }

// --- clients ---

func (f *fakeStore) CreateClient(ctx context.Context, c *model.Client) error {
	for _, existing := range f.clients {
		if existing.Email == c.Email {
			return apperror.Conflict("email", "Email already exists")
		}
	}
	c.ID = f.id()
	copied := *c
	f.clients[c.ID] = &copied
	f.created[c.ID] = time.Now()
	return nil
}

func (f *fakeStore) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, apperror.NotFound("client", idString(id))
	}
	copied := *c
	return &copied, nil
}

func (f *fakeStore) ListClients(ctx context.Context, filter repository.ClientFilter) ([]model.Client, error) {
	out := make([]model.Client, 0)
	for _, c := range f.sortedClients() {
		if filter.Name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.Email != "" && !strings.Contains(strings.ToLower(c.Email), strings.ToLower(filter.Email)) {
			continue
		}
		if filter.Archived != nil && c.Archived != *filter.Archived {
			continue
		}
		if filter.BornOnOrBefore != nil && (c.DOB == nil || c.DOB.After(filter.BornOnOrBefore.Time)) {
			continue
		}
		if filter.BornAfter != nil && (c.DOB == nil || !c.DOB.After(filter.BornAfter.Time)) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) sortedClients() []model.Client {
	out := make([]model.Client, 0, len(f.clients))
	for _, c := range f.clients {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeStore) UpdateClient(ctx context.Context, id int64, patch repository.ClientPatch) (bool, error) {
	c, ok := f.clients[id]
	if !ok {
		return false, apperror.NotFound("client", idString(id))
	}
	changed := false
	if patch.Email != nil && *patch.Email != c.Email {
		for otherID, other := range f.clients {
			if otherID != id && other.Email == *patch.Email {
				return false, apperror.Conflict("email", "Email already exists")
			}
		}
		c.Email = *patch.Email
		changed = true
	}
	if patch.Name != nil && *patch.Name != c.Name {
		c.Name = *patch.Name
		changed = true
	}
	if patch.SetDOB {
		if (patch.DOB == nil) != (c.DOB == nil) || (patch.DOB != nil && !patch.DOB.Equal(c.DOB.Time)) {
			c.DOB = patch.DOB
			changed = true
		}
	}
	if changed {
		f.updates++
	}
	return changed, nil
}

func (f *fakeStore) DeleteClient(ctx context.Context, id int64) (bool, error) {
	c, ok := f.clients[id]
	if !ok {
		return false, apperror.NotFound("client", idString(id))
	}
	for _, m := range f.meals {
		if m.ClientID == id {
			c.Archived = true
			return true, nil
		}
	}
	for _, p := range f.plans {
		if p.ClientID == id {
			c.Archived = true
			return true, nil
		}
	}
	delete(f.clients, id)
	return false, nil
}

func (f *fakeStore) RestoreClient(ctx context.Context, id int64) error {
	c, ok := f.clients[id]
	if !ok {
		return apperror.NotFound("client", idString(id))
	}
	c.Archived = false
	return nil
}

func (f *fakeStore) CountClients(ctx context.Context) (int64, error) {
	return int64(len(f.clients)), nil
}

func (f *fakeStore) CountClientsCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	for id := range f.clients {
		if !f.created[id].Before(since) {
			n++
		}
	}
	return n, nil
}

// --- meal logs ---

func (f *fakeStore) CreateMealLog(ctx context.Context, m *model.MealLog) error {
	if _, ok := f.clients[m.ClientID]; !ok {
		return apperror.NotFound("client", idString(m.ClientID))
	}
	m.ID = f.id()
	for i := range m.Nutrients {
		m.Nutrients[i].ID = f.id()
		m.Nutrients[i].MealLogID = m.ID
	}
	copied := *m
	copied.Nutrients = append([]model.Nutrient(nil), m.Nutrients...)
	f.meals[m.ID] = &copied
	return nil
}

func (f *fakeStore) GetMealLog(ctx context.Context, id int64) (*model.MealLog, error) {
	m, ok := f.meals[id]
	if !ok {
		return nil, apperror.NotFound("meal log", idString(id))
	}
	copied := *m
	return &copied, nil
}

func (f *fakeStore) ListMealLogs(ctx context.Context, filter repository.MealLogFilter) ([]model.MealLog, error) {
	out := make([]model.MealLog, 0)
	for _, m := range f.meals {
		if m.ClientID != filter.ClientID {
			continue
		}
		day := m.LoggedAt.Day()
		if filter.From != nil && day.Before(filter.From.Time) {
			continue
		}
		if filter.To != nil && day.After(filter.To.Time) {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoggedAt.After(out[j].LoggedAt.Time) })
	return out, nil
}

func (f *fakeStore) UpdateMealLog(ctx context.Context, id int64, patch repository.MealLogPatch) error {
	m, ok := f.meals[id]
	if !ok {
		return apperror.NotFound("meal log", idString(id))
	}
	if patch.ClientID != nil {
		if _, ok := f.clients[*patch.ClientID]; !ok {
			return apperror.NotFound("client", idString(*patch.ClientID))
		}
		m.ClientID = *patch.ClientID
	}
	if patch.LoggedAt != nil {
		m.LoggedAt = *patch.LoggedAt
	}
	if patch.Notes != nil {
		m.Notes = *patch.Notes
	}
	if patch.ReplaceNutrients {
		m.Nutrients = append([]model.Nutrient{}, patch.Nutrients...)
	}
	f.updates++
	return nil
}

func (f *fakeStore) DeleteMealLog(ctx context.Context, id int64) error {
	if _, ok := f.meals[id]; !ok {
		return apperror.NotFound("meal log", idString(id))
	}
	delete(f.meals, id)
	return nil
}

func (f *fakeStore) DailyNutrientTotals(ctx context.Context, clientID int64, day model.Date) (int, []model.NutrientTotal, error) {
	meals := 0
	sums := map[[3]string]float64{}
	for _, m := range f.meals {
		if m.ClientID != clientID || !m.LoggedAt.Day().Equal(day.Time) {
			continue
		}
		meals++
		for _, n := range m.Nutrients {
			sums[[3]string{n.Category, n.Name, n.Unit}] += n.Quantity
		}
	}
	totals := make([]model.NutrientTotal, 0, len(sums))
	for k, v := range sums {
		totals = append(totals, model.NutrientTotal{Category: k[0], Name: k[1], Unit: k[2], Total: v})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Category != totals[j].Category {
			return totals[i].Category < totals[j].Category
		}
		return totals[i].Name < totals[j].Name
	})
	return meals, totals, nil
}

// --- plans, progress, targets ---

func (f *fakeStore) CreateNutritionPlan(ctx context.Context, p *model.NutritionPlan) error {
	p.ID = f.id()
	f.plans = append(f.plans, *p)
	return nil
}

func (f *fakeStore) ListNutritionPlans(ctx context.Context, clientID int64) ([]model.NutritionPlan, error) {
	out := make([]model.NutritionPlan, 0)
	for _, p := range f.plans {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateProgressReport(ctx context.Context, r *model.ProgressReport) error {
	r.ID = f.id()
	f.progress = append(f.progress, *r)
	return nil
}

func (f *fakeStore) ListProgressReports(ctx context.Context, clientID int64) ([]model.ProgressReport, error) {
	out := make([]model.ProgressReport, 0)
	for _, r := range f.progress {
		if r.ClientID == clientID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportDate.After(out[j].ReportDate.Time) })
	return out, nil
}

func (f *fakeStore) UpsertNutrientTarget(ctx context.Context, t model.NutrientTarget) error {
	f.targets[t.Name] = t
	return nil
}

func (f *fakeStore) ListNutrientTargets(ctx context.Context) ([]model.NutrientTarget, error) {
	out := make([]model.NutrientTarget, 0, len(f.targets))
	for _, t := range f.targets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- datasets ---

func (f *fakeStore) CreateDataset(ctx context.Context, d *model.Dataset) error {
	d.ID = f.id()
	copied := *d
	f.datasets[d.ID] = &copied
	return nil
}

func (f *fakeStore) GetDataset(ctx context.Context, id int64) (*model.Dataset, error) {
	d, ok := f.datasets[id]
	if !ok {
		return nil, apperror.NotFound("dataset", idString(id))
	}
	copied := *d
	return &copied, nil
}

func (f *fakeStore) ListDatasets(ctx context.Context) ([]model.Dataset, error) {
	out := make([]model.Dataset, 0, len(f.datasets))
	for _, d := range f.datasets {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) UpdateDataset(ctx context.Context, id int64, patch repository.DatasetPatch) (bool, error) {
	d, ok := f.datasets[id]
	if !ok {
		return false, apperror.NotFound("dataset", idString(id))
	}
	changed := false
	set := func(dst *string, v *string) {
		if v != nil && *v != *dst {
			*dst = *v
			changed = true
		}
	}
	set(&d.Name, patch.Name)
	set(&d.Description, patch.Description)
	set(&d.Status, patch.Status)
	return changed, nil
}

func (f *fakeStore) DeleteDataset(ctx context.Context, id int64) error {
	if _, ok := f.datasets[id]; !ok {
		return apperror.NotFound("dataset", idString(id))
	}
	delete(f.datasets, id)
	return nil
}

// --- performance ---

func (f *fakeStore) RecordPerformance(ctx context.Context, s *model.PerformanceSample) error {
	s.ID = f.id()
	if s.RecordedAt.IsZero() {
		s.RecordedAt = model.NewDateTime(time.Now())
	}
	f.samples = append(f.samples, *s)
	return nil
}

func (f *fakeStore) ListPerformance(ctx context.Context, from, to *model.Date) ([]model.PerformanceSample, error) {
	out := make([]model.PerformanceSample, 0)
	for _, s := range f.samples {
		day := s.RecordedAt.Day()
		if from != nil && day.Before(from.Time) {
			continue
		}
		if to != nil && day.After(to.Time) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt.Time) })
	return out, nil
}

func (f *fakeStore) LatestPerformance(ctx context.Context) (*model.PerformanceSample, error) {
	if len(f.samples) == 0 {
		return nil, nil
	}
	latest := f.samples[len(f.samples)-1]
	return &latest, nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.pingErr
}

// --- reports ---

func (f *fakeStore) Report(ctx context.Context, name string) ([]model.ReportRow, error) {
	rows, ok := f.reports[name]
	if !ok {
		return nil, apperror.NotFound("report", name)
	}
	return rows, nil
}

func (f *fakeStore) ReportNames() []string {
	names := make([]string, 0, len(f.reports))
	for n := range f.reports {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// --- athletes ---

func (f *fakeStore) ListAthletes(ctx context.Context) ([]model.Athlete, error) {
	return f.athletes, nil
}

func (f *fakeStore) PlanIntakeTotals(ctx context.Context) ([]model.PlanIntakeTotals, error) {
	return f.intake, nil
}

func (f *fakeStore) DailyMacros(ctx context.Context, athleteID int64) ([]model.DailyMacros, error) {
	out := make([]model.DailyMacros, 0)
	for _, m := range f.macros {
		if m.AthleteID == athleteID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) PlanIntake(ctx context.Context, athleteID *int64) ([]model.PlanIntake, error) {
	return []model.PlanIntake{}, nil
}

func (f *fakeStore) Reminders(ctx context.Context, athleteID int64) ([]model.Reminder, error) {
	out := make([]model.Reminder, 0)
	for _, r := range f.reminders {
		if r.AthleteID == athleteID {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- nutritionist ---

func (f *fakeStore) RecentClientActivity(ctx context.Context, limit int) ([]model.ClientActivity, error) {
	out := make([]model.ClientActivity, 0)
	for _, c := range f.sortedClients() {
		a := model.ClientActivity{ClientID: c.ID, Name: c.Name, Email: c.Email}
		for _, m := range f.meals {
			if m.ClientID != c.ID {
				continue
			}
			a.TotalMeals++
			if a.LastMealDate == nil || m.LoggedAt.After(a.LastMealDate.Time) {
				at := m.LoggedAt
				a.LastMealDate = &at
			}
		}
		out = append(out, a)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ClientOverviews(ctx context.Context, calorieNames []string) ([]model.ClientOverview, error) {
	out := make([]model.ClientOverview, 0)
	for _, c := range f.sortedClients() {
		o := model.ClientOverview{ClientID: c.ID, Name: c.Name, Email: c.Email, Archived: c.Archived}
		var sum float64
		for _, m := range f.meals {
			if m.ClientID != c.ID {
				continue
			}
			o.TotalMeals++
			for _, n := range m.Nutrients {
				for _, name := range calorieNames {
					if strings.EqualFold(n.Name, name) {
						sum += n.Quantity
					}
				}
			}
		}
		if o.TotalMeals > 0 {
			o.AvgCalories = sum / float64(o.TotalMeals)
		}
		out = append(out, o)
	}
	return out, nil
}

// --- accounts ---

func (f *fakeStore) CreateAccount(ctx context.Context, a *model.Account) error {
	a.Email = strings.ToLower(a.Email)
	for _, existing := range f.accounts {
		if existing.Email == a.Email {
			return apperror.Conflict("email", "An account with this email already exists")
		}
	}
	a.ID = "acct-" + idString(f.id())
	copied := *a
	f.accounts[a.ID] = &copied
	return nil
}

func (f *fakeStore) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, apperror.NotFound("account", id)
	}
	copied := *a
	return &copied, nil
}

func (f *fakeStore) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	for _, a := range f.accounts {
		if a.Email == strings.ToLower(email) {
			copied := *a
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("account", email)
}

func (f *fakeStore) GetAccountByGitHubID(ctx context.Context, githubID int64) (*model.Account, error) {
	for _, a := range f.accounts {
		if a.GitHubID != nil && *a.GitHubID == githubID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("account", idString(githubID))
}

func (f *fakeStore) LinkGitHub(ctx context.Context, accountID string, githubID int64) error {
	a, ok := f.accounts[accountID]
	if !ok {
		return apperror.NotFound("account", accountID)
	}
	a.GitHubID = &githubID
	return nil
}

func (f *fakeStore) ListAccounts(ctx context.Context) ([]model.Account, error) {
	out := make([]model.Account, 0, len(f.accounts))
	for _, a := range f.accounts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// seedClient stores a client directly, bypassing validation.
func (f *fakeStore) seedClient(name, email string, dob *model.Date) int64 {
	c := &model.Client{Name: name, Email: email, DOB: dob}
	if err := f.CreateClient(context.Background(), c); err != nil {
		panic(err)
	}
	return c.ID
}

// seedMeal stores a meal directly with the given nutrients.
func (f *fakeStore) seedMeal(clientID int64, at model.DateTime, nutrients ...model.Nutrient) int64 {
	m := &model.MealLog{ClientID: clientID, LoggedAt: at, Nutrients: nutrients}
	if err := f.CreateMealLog(context.Background(), m); err != nil {
		panic(err)
	}
	return m.ID
}

var (
	_ repository.ClientRepository       = (*fakeStore)(nil)
	_ repository.MealLogRepository      = (*fakeStore)(nil)
	_ repository.PlanRepository         = (*fakeStore)(nil)
	_ repository.DatasetRepository      = (*fakeStore)(nil)
	_ repository.PerformanceRepository  = (*fakeStore)(nil)
	_ repository.ReportRepository       = (*fakeStore)(nil)
	_ repository.AthleteRepository      = (*fakeStore)(nil)
	_ repository.NutritionistRepository = (*fakeStore)(nil)
	_ repository.AccountRepository      = (*fakeStore)(nil)
)
