package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timeclock/internal/domain/attendance"
	"timeclock/internal/domain/audit"
	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/companies"
	"timeclock/internal/domain/employees"
	"timeclock/internal/domain/exports"
	"timeclock/internal/domain/extrahours"
	"timeclock/internal/domain/notifications"
	"timeclock/internal/domain/payroll"
	"timeclock/internal/domain/reports"
	"timeclock/internal/domain/schedulechanges"
	"timeclock/internal/domain/vacation"
	"timeclock/internal/platform/config"
	cryptoutil "timeclock/internal/platform/crypto"
	"timeclock/internal/platform/db"
	"timeclock/internal/platform/email"
	"timeclock/internal/platform/jobs"
	"timeclock/internal/platform/logger"
	"timeclock/internal/platform/metrics"
	"timeclock/internal/platform/storage"
	"timeclock/internal/transport/http/api"
	attendancehandler "timeclock/internal/transport/http/handlers/attendance"
	audithandler "timeclock/internal/transport/http/handlers/audit"
	authhandler "timeclock/internal/transport/http/handlers/auth"
	companieshandler "timeclock/internal/transport/http/handlers/companies"
	employeeshandler "timeclock/internal/transport/http/handlers/employees"
	exportshandler "timeclock/internal/transport/http/handlers/exports"
	extrahourshandler "timeclock/internal/transport/http/handlers/extrahours"
	functionshandler "timeclock/internal/transport/http/handlers/functions"
	notificationshandler "timeclock/internal/transport/http/handlers/notifications"
	payrollhandler "timeclock/internal/transport/http/handlers/payroll"
	reportshandler "timeclock/internal/transport/http/handlers/reports"
	schedulechangeshandler "timeclock/internal/transport/http/handlers/schedulechanges"
	vacationshandler "timeclock/internal/transport/http/handlers/vacations"
	"timeclock/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector
}

// Pinger reports database readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New connects to the database, prepares the schema and wires every service
// and route. The caller owns the returned App and must Close it.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	objects, err := storage.NewLocal(cfg.StorageDir, crypto)
	if err != nil {
		pool.Close()
		return nil, err
	}
	template := attendance.DefaultShiftTemplate()
	if cfg.ShiftTemplateFile != "" {
		if template, err = attendance.LoadShiftTemplate(cfg.ShiftTemplateFile); err != nil {
			pool.Close()
			return nil, fmt.Errorf("shift template: %w", err)
		}
	}
	loc := cfg.Location()

	notify := notifications.New(notifications.NewStore(pool), email.New(cfg), cfg.EmailFrom)
	svc := services{
		attendance:  attendance.NewService(attendance.NewStore(pool), template, cfg.MonthlyHoursTarget, loc),
		vacation:    vacation.NewService(vacation.NewStore(pool), notify, cfg.DefaultVacationDays, loc),
		extraHours:  extrahours.NewService(extrahours.NewStore(pool), notify, loc),
		schedule:    schedulechanges.NewService(schedulechanges.NewStore(pool), notify),
		payroll:     payroll.NewService(payroll.NewStore(pool), objects, notify),
		employees:   employees.NewService(employees.NewStore(pool), objects, cfg.DefaultVacationDays, loc),
		companies:   companies.NewService(companies.NewStore(pool)),
		notify:      notify,
		audit:       audit.New(pool),
		users:       auth.NewStore(pool),
		idempotency: middleware.NewIdempotencyStore(pool),
	}
	svc.reports = reports.NewService(reports.NewStore(pool), svc.vacation, svc.extraHours, loc)
	svc.exports = exports.NewService(svc.attendance, svc.vacation, svc.schedule, loc)
	svc.jobs = jobs.New(pool, svc.vacation, cfg.VacationPeriodInterval)

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	return &App{
		Config:  cfg,
		DB:      pool,
		Router:  newRouter(cfg, pool, svc, collector),
		Jobs:    svc.jobs,
		Metrics: collector,
	}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

type services struct {
	attendance  *attendance.Service
	vacation    *vacation.Service
	extraHours  *extrahours.Service
	schedule    *schedulechanges.Service
	payroll     *payroll.Service
	employees   *employees.Service
	companies   *companies.Service
	reports     *reports.Service
	exports     *exports.Service
	notify      *notifications.Service
	audit       *audit.Service
	users       *auth.Store
	jobs        *jobs.Service
	idempotency *middleware.IdempotencyStore
}

func newRouter(cfg config.Config, pinger Pinger, svc services, collector *metrics.Collector) http.Handler {
	perms := auth.NewStaticPermissions()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes, cfg.MaxUploadBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if pinger == nil {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}
		if err := pinger.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.With(middleware.RequireUser, middleware.RequirePermission(auth.PermMetricsRead, perms)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		if collector == nil {
			api.Fail(w, http.StatusNotFound, "metrics_disabled", "metrics are disabled", middleware.GetRequestID(r.Context()))
			return
		}
		api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(svc.users, cfg.JWTSecret, cfg.TokenTTL)
		r.Group(func(r chi.Router) {
			r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
			authHandler.RegisterPublicRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

			authHandler.RegisterRoutes(r)

			attendanceHandler := attendancehandler.NewHandler(svc.attendance, perms, svc.audit, svc.employees)
			attendanceHandler.Metrics = collector
			attendanceHandler.RegisterRoutes(r)

			vacationsHandler := vacationshandler.NewHandler(svc.vacation, perms, svc.audit, svc.employees)
			vacationsHandler.Metrics = collector
			vacationsHandler.RegisterRoutes(r)

			extraHoursHandler := extrahourshandler.NewHandler(svc.extraHours, perms, svc.audit, svc.employees)
			extraHoursHandler.Metrics = collector
			extraHoursHandler.RegisterRoutes(r)

			schedulechangeshandler.NewHandler(svc.schedule, perms, svc.audit, cfg.Location()).RegisterRoutes(r)
			payrollhandler.NewHandler(svc.payroll, perms, svc.audit, svc.employees).RegisterRoutes(r)
			notificationshandler.NewHandler(svc.notify, perms).RegisterRoutes(r)
			companieshandler.NewHandler(svc.companies, perms, svc.audit).RegisterRoutes(r)
			employeeshandler.NewHandler(svc.employees, perms, svc.audit).RegisterRoutes(r)
			reportshandler.NewHandler(svc.reports, perms).RegisterRoutes(r)
			audithandler.NewHandler(svc.audit, perms).RegisterRoutes(r)

			exportsHandler := exportshandler.NewHandler(svc.exports, perms)
			exportsHandler.Metrics = collector
			exportsHandler.RegisterRoutes(r)

			functionsHandler := functionshandler.NewHandler(svc.employees, svc.companies, svc.jobs, svc.idempotency, perms, svc.audit)
			functionsHandler.Metrics = collector
			functionsHandler.RegisterRoutes(r)
		})
	})

	return router
}

// Run loads configuration, serves HTTP until SIGINT/SIGTERM and then shuts
// down gracefully.
func Run() error {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFilePath)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.From(ctx).Info().Str("addr", cfg.Addr).Str("env", cfg.Environment).Msg("timeclock server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	logger.From(ctx).Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}
