package extrahourshandler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/domain/audit"
	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/employees"
	"timeclock/internal/domain/extrahours"
	"timeclock/internal/platform/logger"
	"timeclock/internal/platform/metrics"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

type Handler struct {
	Service   *extrahours.Service
	Perms     middleware.PermissionStore
	Audit     shared.Auditor
	Employees shared.EmployeeDirectory
	Metrics   *metrics.Collector
}

func NewHandler(service *extrahours.Service, perms middleware.PermissionStore, auditor shared.Auditor, dir shared.EmployeeDirectory) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor, Employees: dir}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/extra-hours", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermExtraHoursRead, h.Perms)).Get("/balance", h.handleBalance)
		r.With(middleware.RequirePermission(auth.PermExtraHoursRead, h.Perms)).Get("/grants", h.handleListGrants)
		r.With(middleware.RequirePermission(auth.PermExtraHoursManage, h.Perms)).Post("/grants", h.handleGrant)
		r.With(middleware.RequirePermission(auth.PermExtraHoursRead, h.Perms)).Get("/compensatory-days", h.handleListCompensatory)
		r.With(middleware.RequirePermission(auth.PermExtraHoursManage, h.Perms)).Post("/compensatory-days", h.handleGrantCompensatory)
		r.With(middleware.RequirePermission(auth.PermExtraHoursRead, h.Perms)).Get("/requests", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermExtraHoursWrite, h.Perms)).Post("/requests", h.handleRequestUsage)
		r.With(middleware.RequirePermission(auth.PermExtraHoursManage, h.Perms)).Post("/requests/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermExtraHoursManage, h.Perms)).Post("/requests/{requestID}/reject", h.handleReject)
	})
}

type grantRequest struct {
	EmployeeID string  `json:"employeeId" validate:"required"`
	Date       string  `json:"date" validate:"required"`
	Hours      float64 `json:"hours" validate:"gt=0,lte=24"`
	Reason     string  `json:"reason" validate:"max=1000"`
}

type compensatoryRequest struct {
	EmployeeID string  `json:"employeeId" validate:"required"`
	Date       string  `json:"date" validate:"required"`
	Days       float64 `json:"days" validate:"gt=0,lte=31"`
	Reason     string  `json:"reason" validate:"max=1000"`
}

type usageRequest struct {
	Date   string  `json:"date" validate:"required"`
	Hours  float64 `json:"hours" validate:"gt=0,lte=24"`
	Reason string  `json:"reason" validate:"max=1000"`
}

type decisionRequest struct {
	Comments string `json:"comments" validate:"max=1000"`
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	employeeID, _, err := shared.ResolveTarget(r, user, r.URL.Query().Get("employeeId"), h.Employees)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.Service.Summary(r.Context(), employeeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, summary, requestID)
}

// listFilter scopes list queries: employees only ever see their own rows.
func listFilter(r *http.Request, user auth.UserContext) extrahours.ListFilter {
	page := shared.ParsePagination(r, 50, 200)
	filter := extrahours.ListFilter{
		CompanyID: shared.CompanyScope(r, user),
		Status:    strings.TrimSpace(r.URL.Query().Get("status")),
		Limit:     page.Limit,
		Offset:    page.Offset,
	}
	if user.IsAdmin() {
		filter.EmployeeID = strings.TrimSpace(r.URL.Query().Get("employeeId"))
	} else {
		filter.EmployeeID = user.UserID
	}
	return filter
}

func (h *Handler) handleListGrants(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	items, err := h.Service.ListGrants(r.Context(), listFilter(r, user))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListCompensatory(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	items, err := h.Service.ListCompensatory(r.Context(), listFilter(r, user))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	filter := listFilter(r, user)
	if filter.Status != "" {
		v := shared.NewValidator()
		v.Enum("status", filter.Status, []string{extrahours.StatusPending, extrahours.StatusApproved, extrahours.StatusRejected}, "must be pending, approved or rejected")
		if v.Reject(w, requestID) {
			return
		}
	}
	items, err := h.Service.ListRequests(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, items, requestID)
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload grantRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.ValidateStruct(payload)
	date, _ := v.Date("date", payload.Date)
	if v.Reject(w, requestID) {
		return
	}

	employeeID, companyID, err := shared.ResolveTarget(r, user, payload.EmployeeID, h.Employees)
	if err != nil {
		writeError(w, r, err)
		return
	}
	grant, err := h.Service.Grant(r.Context(), extrahours.GrantInput{
		EmployeeID: employeeID,
		CompanyID:  companyID,
		GrantedBy:  user.UserID,
		Date:       date,
		Hours:      payload.Hours,
		Reason:     payload.Reason,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionExtraHoursGrant, "extra_hours", grant.ID, nil, grant)
	api.Created(w, grant, requestID)
}

func (h *Handler) handleGrantCompensatory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload compensatoryRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.ValidateStruct(payload)
	date, _ := v.Date("date", payload.Date)
	if v.Reject(w, requestID) {
		return
	}

	employeeID, companyID, err := shared.ResolveTarget(r, user, payload.EmployeeID, h.Employees)
	if err != nil {
		writeError(w, r, err)
		return
	}
	day, err := h.Service.GrantCompensatory(r.Context(), extrahours.CompensatoryInput{
		EmployeeID: employeeID,
		CompanyID:  companyID,
		GrantedBy:  user.UserID,
		Date:       date,
		Days:       payload.Days,
		Reason:     payload.Reason,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionCompensatoryGrant, "compensatory_day", day.ID, nil, day)
	api.Created(w, day, requestID)
}

func (h *Handler) handleRequestUsage(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload usageRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.ValidateStruct(payload)
	date, _ := v.Date("date", payload.Date)
	if v.Reject(w, requestID) {
		return
	}

	req, err := h.Service.RequestUsage(r.Context(), extrahours.UsageInput{
		EmployeeID: user.UserID,
		CompanyID:  user.CompanyID,
		Date:       date,
		Hours:      payload.Hours,
		Reason:     payload.Reason,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.Add(metrics.EventExtraHoursUsed, 1)
	api.Created(w, req, requestID)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Approve)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, companyID, requestID, approverID, comments string) (extrahours.UsageRequest, error)) {
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

	usageID := chi.URLParam(r, "requestID")
	req, err := fn(r.Context(), shared.CompanyScope(r, user), usageID, user.UserID, strings.TrimSpace(payload.Comments))
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionExtraHoursDecision, "extra_hours_request", usageID, nil, map[string]any{
		"status": req.Status,
		"hours":  req.HoursRequested,
	})
	api.Success(w, req, requestID)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, extrahours.ErrInvalidHours):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "hours", Reason: "must be greater than zero"}})
	case errors.Is(err, extrahours.ErrInvalidDays):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "days", Reason: "must be greater than zero"}})
	case errors.Is(err, extrahours.ErrDateTooSoon):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "date", Reason: "must be at least one day ahead"}})
	case errors.Is(err, extrahours.ErrInsufficientBalance):
		api.Fail(w, http.StatusUnprocessableEntity, "insufficient_balance", "not enough extra hours available", requestID)
	case errors.Is(err, extrahours.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "request is no longer pending", requestID)
	case errors.Is(err, extrahours.ErrNotFound), errors.Is(err, employees.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	default:
		logger.From(r.Context()).Error().Err(err).Msg("extra hours request failed")
		api.Fail(w, http.StatusInternalServerError, "extra_hours_failed", "extra hours operation failed", requestID)
	}
}
