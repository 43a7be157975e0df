package reportshandler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/reports"
	"timeclock/internal/platform/logger"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *reports.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/dashboard", h.handleDashboard)
		r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/jobs", h.handleJobRuns)
		r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/jobs/{runID}", h.handleJobRun)
	})
}

// handleDashboard serves the admin counters to admins and the personal
// dashboard to everyone else; ?view=employee forces the personal one.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	if user.IsAdmin() && r.URL.Query().Get("view") != "employee" {
		dashboard, err := h.Service.AdminDashboard(r.Context(), shared.CompanyScope(r, user))
		if err != nil {
			logger.From(r.Context()).Error().Err(err).Msg("admin dashboard failed")
			api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to load dashboard", requestID)
			return
		}
		api.Success(w, dashboard, requestID)
		return
	}

	dashboard, err := h.Service.EmployeeDashboard(r.Context(), user.UserID, user.CompanyID)
	if err != nil {
		logger.From(r.Context()).Error().Err(err).Msg("employee dashboard failed")
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to load dashboard", requestID)
		return
	}
	api.Success(w, dashboard, requestID)
}

func (h *Handler) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	from, errFrom := shared.OptionalDate(r, "from")
	to, errTo := shared.OptionalDate(r, "to")
	v := shared.NewValidator()
	if errFrom != nil {
		v.Add("from", "must be a valid date in YYYY-MM-DD format")
	}
	if errTo != nil {
		v.Add("to", "must be a valid date in YYYY-MM-DD format")
	}
	if v.Reject(w, requestID) {
		return
	}

	filter := reports.JobRunFilter{
		JobType:     strings.TrimSpace(r.URL.Query().Get("jobType")),
		Status:      strings.TrimSpace(r.URL.Query().Get("status")),
		StartedFrom: from,
		StartedTo:   to,
	}
	page := shared.ParsePagination(r, 50, 200)
	runs, total, err := h.Service.JobRuns(r.Context(), shared.CompanyScope(r, user), filter, page.Limit, page.Offset)
	if err != nil {
		logger.From(r.Context()).Error().Err(err).Msg("job run list failed")
		api.Fail(w, http.StatusInternalServerError, "job_runs_failed", "failed to list job runs", requestID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, runs, requestID)
}

func (h *Handler) handleJobRun(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	run, err := h.Service.JobRun(r.Context(), shared.CompanyScope(r, user), chi.URLParam(r, "runID"))
	if errors.Is(err, reports.ErrJobRunNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "job run not found", requestID)
		return
	}
	if err != nil {
		logger.From(r.Context()).Error().Err(err).Msg("job run lookup failed")
		api.Fail(w, http.StatusInternalServerError, "job_run_failed", "failed to load job run", requestID)
		return
	}
	api.Success(w, run, requestID)
}
