// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It connects the store, services,
// handlers, middleware and background jobs, and decides:
//   - which URL patterns map to which handler functions
//   - which role policy guards which group of routes
//   - how the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → OpenStore → sqlstore.DB
//	sqlstore.DB   → NewServices → ClientService, MealLogService, ...
//	Services      → handlers → routes
//
// Everything is assembled here (the "composition root"), so the operator
// CLI can build the same services without an HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/macromates/nutribuddy/internal/auth"
	"github.com/macromates/nutribuddy/internal/config"
	"github.com/macromates/nutribuddy/internal/handler"
	"github.com/macromates/nutribuddy/internal/middleware"
	"github.com/macromates/nutribuddy/internal/repository/sqlstore"
	"github.com/macromates/nutribuddy/internal/service"
	"github.com/macromates/nutribuddy/internal/snapshot"
)

// Resources named in the role policy. Each route group is guarded by one.
const (
	ResourceClients           = "clients"
	ResourceMealLogs          = "meal_logs"
	ResourceNutrientTargets   = "nutrient_targets"
	ResourceNutritionist      = "nutritionist"
	ResourceAthlete           = "athlete"
	ResourceCEO               = "ceo"
	ResourceDatasets          = "datasets"
	ResourceSystemPerformance = "system_performance"
	ResourceAccounts          = "accounts"
)

// OpenStore connects to the configured database and migrates it. For a
// SQLite file the parent directory is created first.
func OpenStore(ctx context.Context, cfg config.Config) (*sqlstore.DB, error) {
	dialect := sqlstore.DialectSQLite
	if cfg.DBDriver == config.DriverPostgres {
		dialect = sqlstore.DialectPostgres
	}

	if dialect == sqlstore.DialectSQLite && cfg.DBPath != ":memory:" {
		// os.MkdirAll is a no-op when the directory already exists.
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	return sqlstore.Open(ctx, dialect, cfg.DSN())
}

// Services is every business service, built over one store.
type Services struct {
	Clients      *service.ClientService
	Plans        *service.PlanService
	MealLogs     *service.MealLogService
	Datasets     *service.DatasetService
	Performance  *service.PerformanceService
	Reports      *service.ReportService
	Athletes     *service.AthleteService
	Nutritionist *service.NutritionistService
	Auth         *service.AuthService
}

// NewServices builds the services. tokens may be nil when authentication is
// disabled; only sign-in needs it.
func NewServices(db *sqlstore.DB, tokens *auth.TokenService, logger *slog.Logger) *Services {
	return &Services{
		Clients:      service.NewClientService(db, db, logger),
		Plans:        service.NewPlanService(db, db, logger),
		MealLogs:     service.NewMealLogService(db, logger),
		Datasets:     service.NewDatasetService(db, logger),
		Performance:  service.NewPerformanceService(db, db, db, logger),
		Reports:      service.NewReportService(db),
		Athletes:     service.NewAthleteService(db, logger),
		Nutritionist: service.NewNutritionistService(db, db, db, db, logger),
		Auth:         service.NewAuthService(db, db, tokens, auth.NewPasswordService(), logger),
	}
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection and the snapshot scheduler. Both
// are released in Start during graceful shutdown, or by Close when the
// server is never started (tests).
type Server struct {
	router    *chi.Mux
	config    config.Config
	logger    *slog.Logger
	db        *sqlstore.DB
	services  *Services
	tokens    *auth.TokenService // nil when authentication is disabled
	policy    *auth.Policy       // nil when authentication is disabled
	snapshots *snapshot.Scheduler
}

// New creates a Server from cfg: it opens the store, builds services and
// handlers, loads the role policy and registers every route.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := OpenStore(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setup(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) setup() error {
	if s.config.AuthEnabled() {
		tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
		policy, err := auth.LoadPolicy(s.config.PolicyFile)
		if err != nil {
			return fmt.Errorf("loading role policy: %w", err)
		}
		s.tokens = tokens
		s.policy = policy
	}

	s.services = NewServices(s.db, s.tokens, s.logger)

	if s.config.SnapshotSchedule != "" {
		scheduler, err := snapshot.New(s.config.SnapshotSchedule, s.services.Performance, s.logger)
		if err != nil {
			return fmt.Errorf("creating snapshot scheduler: %w", err)
		}
		s.snapshots = scheduler
	}

	s.setupRoutes()
	return nil
}

// Handler returns the root HTTP handler, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// guard returns the middleware protecting routes of resource. With
// authentication disabled every route is open.
func (s *Server) guard(resource string) func(http.Handler) http.Handler {
	if s.policy == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return auth.Authorize(s.policy, resource)
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                                   → welcome message
// POST   /auth/login, /auth/logout           → password sessions
// GET    /auth/me                            → current account
// GET    /auth/github/login, /callback       → GitHub sign-in (when configured)
// *      /api/clients/...                    → clients, plans, progress reports
// *      /api/meal-logs/...                  → meal logs and daily summary
// GET|PUT /api/nutrient-targets              → deficiency targets
// GET    /api/nutritionist/...               → nutritionist dashboard
// GET    /api/athlete/...                    → student athlete dashboard
// GET    /api/ceo/...                        → CEO reporting tables
// *      /api/datasets/...                   → system administrator datasets
// *      /api/system-performance/...         → performance samples, manual snapshot
// GET|POST /api/accounts                     → account provisioning
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID    → unique id per request, echoed in logs
//  2. RealIP       → client IP from proxy headers
//  3. Logger       → one line per request
//  4. Recoverer    → a panic becomes a 500 instead of a crash
//  5. Authenticate → principal from the JWT (only when auth is enabled)
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	if s.tokens != nil {
		s.router.Use(auth.Authenticate(s.tokens))
	}

	s.router.Get("/", handler.HandleIndex)

	svc := s.services
	clientHandler := handler.NewClientHandler(svc.Clients, svc.Plans, s.logger)
	mealHandler := handler.NewMealLogHandler(svc.MealLogs, s.logger)
	adminHandler := handler.NewAdminHandler(svc.Datasets, svc.Performance, svc.Reports, s.logger)
	athleteHandler := handler.NewAthleteHandler(svc.Athletes, s.logger)
	nutritionistHandler := handler.NewNutritionistHandler(svc.Nutritionist, s.logger)
	accountHandler := handler.NewAccountHandler(svc.Auth, s.logger)

	// === Auth Routes ===
	// Registered only when JWT_SECRET is set; without it there is nothing to
	// sign in to.
	if s.tokens != nil {
		var github *auth.GitHubProvider
		if s.config.GitHubEnabled() {
			github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
		}
		authHandler := handler.NewAuthHandler(svc.Auth, github, s.tokens, s.logger)

		s.router.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.With(auth.RequireAuth).Get("/me", authHandler.HandleMe)
			if github != nil {
				r.Get("/github/login", authHandler.HandleGitHubLogin)
				r.Get("/github/callback", authHandler.HandleGitHubCallback)
			}
		})
	}

	// === API Routes ===
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Use(s.guard(ResourceClients))
			r.Get("/", clientHandler.HandleList)
			r.Post("/", clientHandler.HandleCreate)
			r.Get("/search", clientHandler.HandleSearch)
			r.Get("/stats", clientHandler.HandleStats)
			r.Get("/{id}", clientHandler.HandleGet)
			r.Put("/{id}", clientHandler.HandleUpdate)
			r.Delete("/{id}", clientHandler.HandleDelete)
			r.Post("/{id}/restore", clientHandler.HandleRestore)
			r.Get("/{id}/nutrition-plans", clientHandler.HandleListPlans)
			r.Post("/{id}/nutrition-plans", clientHandler.HandleCreatePlan)
			r.Get("/{id}/progress-reports", clientHandler.HandleListProgress)
			r.Post("/{id}/progress-reports", clientHandler.HandleCreateProgress)
		})

		r.Route("/meal-logs", func(r chi.Router) {
			r.Use(s.guard(ResourceMealLogs))
			r.Get("/", mealHandler.HandleList)
			r.Post("/", mealHandler.HandleCreate)
			r.Get("/daily-summary", mealHandler.HandleDailySummary)
			r.Get("/{id}", mealHandler.HandleGet)
			r.Put("/{id}", mealHandler.HandleUpdate)
			r.Delete("/{id}", mealHandler.HandleDelete)
		})

		r.Route("/nutrient-targets", func(r chi.Router) {
			r.Use(s.guard(ResourceNutrientTargets))
			r.Get("/", nutritionistHandler.HandleListTargets)
			r.Put("/", nutritionistHandler.HandleSetTarget)
		})

		r.Route("/nutritionist", func(r chi.Router) {
			r.Use(s.guard(ResourceNutritionist))
			r.Get("/dashboard", nutritionistHandler.HandleDashboard)
			r.Get("/clients", nutritionistHandler.HandleClients)
			// The dashboards address a single client as /client/{id}.
			for _, prefix := range []string{"/clients/{id}", "/client/{id}"} {
				r.Get(prefix, nutritionistHandler.HandleClientDetail)
				r.Get(prefix+"/progress", nutritionistHandler.HandleClientProgress)
				r.Get(prefix+"/nutrition", nutritionistHandler.HandleClientNutrition)
			}
		})

		r.Route("/athlete", func(r chi.Router) {
			r.Use(s.guard(ResourceAthlete))
			r.Get("/bmi", athleteHandler.HandleBMI)
			r.Get("/maintenance_calories", athleteHandler.HandleMaintenanceCalories)
			r.Get("/weight_change", athleteHandler.HandleWeightChange)
			r.Get("/daily_macro_breakdown", athleteHandler.HandleDailyMacroBreakdown)
			r.Get("/workout_plan_intake", athleteHandler.HandlePlanIntake)
			r.Get("/reminders", athleteHandler.HandleReminders)
		})

		r.Route("/ceo", func(r chi.Router) {
			r.Use(s.guard(ResourceCEO))
			r.Get("/", adminHandler.HandleListReports)
			r.Get("/{report}", adminHandler.HandleReport)
		})

		r.Route("/datasets", func(r chi.Router) {
			r.Use(s.guard(ResourceDatasets))
			r.Get("/", adminHandler.HandleListDatasets)
			r.Post("/", adminHandler.HandleCreateDataset)
			r.Get("/{id}", adminHandler.HandleGetDataset)
			r.Put("/{id}", adminHandler.HandleUpdateDataset)
			r.Delete("/{id}", adminHandler.HandleDeleteDataset)
		})

		r.Route("/system-performance", func(r chi.Router) {
			r.Use(s.guard(ResourceSystemPerformance))
			r.Get("/", adminHandler.HandleListPerformance)
			r.Post("/", adminHandler.HandleRecordPerformance)
			r.Post("/snapshot", adminHandler.HandleSnapshot)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Use(s.guard(ResourceAccounts))
			r.Get("/", accountHandler.HandleList)
			r.Post("/", accountHandler.HandleCreate)
		})
	})
}

// Close releases the store and stops the scheduler. Start calls it on
// shutdown; tests that never start the server call it directly.
func (s *Server) Close() error {
	if s.snapshots != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.snapshots.Stop(ctx)
	}
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Stop the snapshot scheduler, waiting for a running snapshot
//  4. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("driver", string(s.db.Dialect())),
			slog.Bool("auth", s.tokens != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	if s.snapshots != nil {
		s.snapshots.Start()
	}

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
