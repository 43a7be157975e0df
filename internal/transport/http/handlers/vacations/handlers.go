package vacationshandler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/domain/audit"
	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/employees"
	"timeclock/internal/domain/vacation"
	"timeclock/internal/platform/logger"
	"timeclock/internal/platform/metrics"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

type Handler struct {
	Service   *vacation.Service
	Perms     middleware.PermissionStore
	Audit     shared.Auditor
	Employees shared.EmployeeDirectory
	Metrics   *metrics.Collector
}

func NewHandler(service *vacation.Service, perms middleware.PermissionStore, auditor shared.Auditor, dir shared.EmployeeDirectory) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor, Employees: dir}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/vacations", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermVacationRead, h.Perms)).Get("/requests", h.handleList)
		r.With(middleware.RequirePermission(auth.PermVacationWrite, h.Perms)).Post("/requests", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermVacationWrite, h.Perms)).Delete("/requests/{requestID}", h.handleCancel)
		r.With(middleware.RequirePermission(auth.PermVacationApprove, h.Perms)).Post("/requests/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermVacationApprove, h.Perms)).Post("/requests/{requestID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermVacationRead, h.Perms)).Get("/balance", h.handleBalance)
		r.With(middleware.RequirePermission(auth.PermVacationApprove, h.Perms)).Put("/balance", h.handleSetBalance)
	})
}

type createRequest struct {
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
	Reason    string `json:"reason" validate:"max=1000"`
}

type decisionRequest struct {
	Comments string `json:"comments" validate:"max=1000"`
}

type balanceRequest struct {
	EmployeeID string `json:"employeeId" validate:"required"`
	Year       int    `json:"year" validate:"required,min=2000,max=2100"`
	TotalDays  int    `json:"totalDays" validate:"min=0,max=366"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	from, errFrom := shared.OptionalDate(r, "from")
	to, errTo := shared.OptionalDate(r, "to")
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	v := shared.NewValidator()
	if errFrom != nil {
		v.Add("from", "must be a valid date in YYYY-MM-DD format")
	}
	if errTo != nil {
		v.Add("to", "must be a valid date in YYYY-MM-DD format")
	}
	if status != "" {
		v.Enum("status", status, []string{vacation.StatusPending, vacation.StatusApproved, vacation.StatusRejected}, "must be pending, approved or rejected")
	}
	if v.Reject(w, requestID) {
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	filter := vacation.ListFilter{
		CompanyID: shared.CompanyScope(r, user),
		Status:    status,
		From:      from,
		To:        to,
		Limit:     page.Limit,
		Offset:    page.Offset,
	}
	if user.IsAdmin() {
		filter.EmployeeID = strings.TrimSpace(r.URL.Query().Get("employeeId"))
	} else {
		filter.EmployeeID = user.UserID
	}
	items, err := h.Service.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, items, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload createRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.ValidateStruct(payload)
	start, okStart := v.Date("startDate", payload.StartDate)
	end, okEnd := v.Date("endDate", payload.EndDate)
	if okStart && okEnd {
		v.DateOrder("startDate", start, "endDate", end)
	}
	if v.Reject(w, requestID) {
		return
	}

	result, err := h.Service.CreateRequest(r.Context(), vacation.CreateInput{
		EmployeeID: user.UserID,
		CompanyID:  user.CompanyID,
		StartDate:  start,
		EndDate:    end,
		Reason:     payload.Reason,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.Add(metrics.EventVacationRequested, 1)
	api.Created(w, result, requestID)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if err := h.Service.Cancel(r.Context(), user.CompanyID, user.UserID, chi.URLParam(r, "requestID")); err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "cancelled"}, requestID)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Approve)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Reject)
}

type decideFunc func(ctx context.Context, companyID, requestID, approverID, comments string) (vacation.Request, error)

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn decideFunc) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload decisionRequest
	if r.ContentLength != 0 {
		if !shared.DecodeJSON(w, r, &payload, requestID) {
			return
		}
	}
	v := shared.NewValidator()
	v.ValidateStruct(payload)
	if v.Reject(w, requestID) {
		return
	}

	vacationID := chi.URLParam(r, "requestID")
	req, err := fn(r.Context(), shared.CompanyScope(r, user), vacationID, user.UserID, strings.TrimSpace(payload.Comments))
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionVacationDecision, "vacation_request", vacationID, nil, map[string]string{
		"status":   req.Status,
		"comments": req.AdminComments,
	})
	api.Success(w, req, requestID)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	employeeID, companyID, err := shared.ResolveTarget(r, user, r.URL.Query().Get("employeeId"), h.Employees)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var balance vacation.Balance
	if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
		year, convErr := strconv.Atoi(raw)
		if convErr != nil || year < 2000 || year > 2100 {
			shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "year", Reason: "must be a valid period year"}})
			return
		}
		balance, err = h.Service.Balance(r.Context(), employeeID, companyID, year)
	} else {
		balance, err = h.Service.CurrentBalance(r.Context(), employeeID, companyID)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, balance, requestID)
}

func (h *Handler) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload balanceRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.ValidateStruct(payload)
	if v.Reject(w, requestID) {
		return
	}

	employeeID, companyID, err := shared.ResolveTarget(r, user, payload.EmployeeID, h.Employees)
	if err != nil {
		writeError(w, r, err)
		return
	}
	before, err := h.Service.Balance(r.Context(), employeeID, companyID, payload.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	after, err := h.Service.SetBalance(r.Context(), employeeID, companyID, payload.Year, payload.TotalDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionVacationBalanceSet, "vacation_balance", employeeID, before, after)
	api.Success(w, after, requestID)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, vacation.ErrInvalidRange):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "endDate", Reason: "must be on or after startDate"}})
	case errors.Is(err, vacation.ErrPeriodNotAllowed):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "startDate", Reason: "vacation period not open for requests"}})
	case errors.Is(err, vacation.ErrOverlap):
		api.Fail(w, http.StatusConflict, "overlap", "request overlaps an existing request", requestID)
	case errors.Is(err, vacation.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "request is no longer pending", requestID)
	case errors.Is(err, vacation.ErrForbidden), errors.Is(err, employees.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", requestID)
	case errors.Is(err, vacation.ErrNotFound), errors.Is(err, employees.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	default:
		logger.From(r.Context()).Error().Err(err).Msg("vacation request failed")
		api.Fail(w, http.StatusInternalServerError, "vacation_failed", "vacation operation failed", requestID)
	}
}
