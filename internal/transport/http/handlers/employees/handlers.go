package employeeshandler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/domain/audit"
	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/employees"
	"timeclock/internal/platform/logger"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

type Handler struct {
	Service *employees.Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
}

func NewHandler(service *employees.Service, perms middleware.PermissionStore, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/{employeeID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/{employeeID}/status", h.handleStatus)
	})
}

type updateRequest struct {
	FullName     string `json:"fullName" validate:"max=200"`
	Department   string `json:"department" validate:"max=200"`
	EmployeeCode string `json:"employeeCode" validate:"max=64"`
	HireDate     string `json:"hireDate"`
	Role         string `json:"role" validate:"omitempty,oneof=employee admin super_admin"`
}

type statusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	page := shared.ParsePagination(r, 100, 500)
	filter := employees.ListFilter{
		CompanyID: shared.CompanyScope(r, user),
		Search:    strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:     page.Limit,
		Offset:    page.Offset,
	}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "active", Reason: "must be true or false"}})
			return
		}
		filter.Active = &active
	}
	items, err := h.Service.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, items, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	emp, err := h.Service.Get(r.Context(), shared.CompanyScope(r, user), chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload updateRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.ValidateStruct(payload)
	in := employees.UpdateInput{
		FullName:     payload.FullName,
		Department:   strings.TrimSpace(payload.Department),
		EmployeeCode: strings.TrimSpace(payload.EmployeeCode),
		Role:         payload.Role,
	}
	if payload.HireDate != "" {
		if hire, ok := v.Date("hireDate", payload.HireDate); ok {
			in.HireDate = &hire
		}
	}
	if v.Reject(w, requestID) {
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	before, after, err := h.Service.Update(r.Context(), user, shared.CompanyScope(r, user), employeeID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionEmployeeUpdate, "employee", employeeID, before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload statusRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.ValidateStruct(payload)
	if v.Reject(w, requestID) {
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	if employeeID == user.UserID && !*payload.Active {
		api.Fail(w, http.StatusConflict, "invalid_state", "cannot deactivate your own account", requestID)
		return
	}
	if err := h.Service.SetActive(r.Context(), shared.CompanyScope(r, user), employeeID, *payload.Active); err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionEmployeeStatus, "employee", employeeID, nil, map[string]bool{"isActive": *payload.Active})
	api.Success(w, map[string]bool{"isActive": *payload.Active}, requestID)
}

// WriteError maps employee domain errors to envelope failures. The
// privileged functions share it.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, employees.ErrWeakPassword):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "password", Reason: "must be at least 6 characters"}})
	case errors.Is(err, employees.ErrCompanyRequired):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "company_id", Reason: "is required"}})
	case errors.Is(err, employees.ErrForbidden), errors.Is(err, employees.ErrRoleNotAllowed), errors.Is(err, employees.ErrOtherCompany):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, employees.ErrEmailTaken):
		api.Fail(w, http.StatusConflict, "email_taken", "email already registered", requestID)
	case errors.Is(err, employees.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
	default:
		logger.From(r.Context()).Error().Err(err).Msg("employee request failed")
		api.Fail(w, http.StatusInternalServerError, "employee_failed", "employee operation failed", requestID)
	}
}
