package functionshandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/domain/audit"
	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/companies"
	"timeclock/internal/domain/employees"
	"timeclock/internal/platform/jobs"
	"timeclock/internal/platform/logger"
	"timeclock/internal/platform/metrics"
	"timeclock/internal/transport/http/api"
	employeeshandler "timeclock/internal/transport/http/handlers/employees"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

const endpointCreateEmployee = "functions.create-employee"

type EmployeeAdmin interface {
	Create(ctx context.Context, actor auth.UserContext, in employees.CreateInput) (employees.Employee, error)
	Delete(ctx context.Context, actor auth.UserContext, employeeID string) (employees.DeletionReport, error)
}

type Migrator interface {
	MigrateLegacyData(ctx context.Context, companyID string) (companies.MigrationResult, error)
}

type JobRunner interface {
	RunNow(ctx context.Context, jobType, companyID string, run jobs.RunFunc) (any, error)
}

type IdempotencyStore interface {
	Check(ctx context.Context, companyID, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, companyID, userID, endpoint, key, requestHash string, response json.RawMessage) error
}

// Handler serves the privileged admin functions: employee provisioning,
// employee removal and legacy data adoption.
type Handler struct {
	Employees   EmployeeAdmin
	Companies   Migrator
	Jobs        JobRunner
	Idempotency IdempotencyStore
	Perms       middleware.PermissionStore
	Audit       shared.Auditor
	Metrics     *metrics.Collector
}

func NewHandler(emps EmployeeAdmin, comps Migrator, runner JobRunner, idem IdempotencyStore, perms middleware.PermissionStore, auditor shared.Auditor) *Handler {
	return &Handler{Employees: emps, Companies: comps, Jobs: runner, Idempotency: idem, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/functions", func(r chi.Router) {
		r.Post("/create-employee", h.handleCreateEmployee)
		r.Post("/delete-employee", h.handleDeleteEmployee)
		r.With(middleware.RequirePermission(auth.PermCompaniesMigrate, h.Perms)).Post("/migrate-company-data", h.handleMigrate)
	})
}

type createEmployeeRequest struct {
	FullName   string `json:"full_name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email"`
	Role       string `json:"role" validate:"omitempty,oneof=employee admin super_admin"`
	Department string `json:"department" validate:"max=200"`
	EmployeeID string `json:"employee_id" validate:"max=64"`
	Password   string `json:"password"`
	CompanyID  string `json:"company_id"`
}

type deleteEmployeeRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
}

type migrateRequest struct {
	CompanyID string `json:"companyId" validate:"required"`
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !user.IsAdmin() {
		api.Fail(w, http.StatusForbidden, "forbidden", "admin role required", requestID)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	var payload createEmployeeRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.ValidateStruct(payload)
	if len(payload.Password) < employees.MinPasswordLength {
		v.Add("password", "must be at least 6 characters")
	}
	if user.IsSuperAdmin() && strings.TrimSpace(payload.CompanyID) == "" && payload.Role != auth.RoleSuperAdmin {
		v.Add("company_id", "is required")
	}
	if v.Reject(w, requestID) {
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	requestHash := middleware.RequestHash(body)
	if idempotencyKey != "" && h.Idempotency != nil {
		stored, found, err := h.Idempotency.Check(r.Context(), user.CompanyID, user.UserID, endpointCreateEmployee, idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different payload", requestID)
			return
		}
		if err != nil {
			logger.From(r.Context()).Warn().Err(err).Msg("idempotency check failed")
		}
		if found {
			api.Created(w, stored, requestID)
			return
		}
	}

	emp, err := h.Employees.Create(r.Context(), user, employees.CreateInput{
		FullName:     payload.FullName,
		Email:        payload.Email,
		Role:         payload.Role,
		Department:   strings.TrimSpace(payload.Department),
		EmployeeCode: strings.TrimSpace(payload.EmployeeID),
		Password:     payload.Password,
		CompanyID:    strings.TrimSpace(payload.CompanyID),
	})
	if err != nil {
		employeeshandler.WriteError(w, r, err)
		return
	}
	h.Metrics.Add(metrics.EventEmployeeCreated, 1)
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionEmployeeCreate, "employee", emp.ID, nil, emp)

	if idempotencyKey != "" && h.Idempotency != nil {
		encoded, err := json.Marshal(emp)
		if err != nil {
			logger.From(r.Context()).Warn().Err(err).Msg("create employee response marshal failed")
		} else if err := h.Idempotency.Save(r.Context(), user.CompanyID, user.UserID, endpointCreateEmployee, idempotencyKey, requestHash, encoded); err != nil {
			logger.From(r.Context()).Warn().Err(err).Msg("idempotency save failed")
		}
	}
	api.Created(w, emp, requestID)
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !user.IsAdmin() {
		api.Fail(w, http.StatusForbidden, "forbidden", "admin role required", requestID)
		return
	}
	var payload deleteEmployeeRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.ValidateStruct(payload)
	if v.Reject(w, requestID) {
		return
	}
	if payload.EmployeeID == user.UserID {
		api.Fail(w, http.StatusConflict, "invalid_state", "cannot delete your own account", requestID)
		return
	}

	report, err := h.Employees.Delete(r.Context(), user, payload.EmployeeID)
	if errors.Is(err, employees.ErrDeleteFailed) {
		logger.From(r.Context()).Error().Err(err).Str("employeeId", payload.EmployeeID).Msg("employee deletion incomplete")
		api.FailWithDetails(w, http.StatusInternalServerError, "delete_incomplete", "some employee data could not be deleted", report, requestID)
		return
	}
	if err != nil {
		employeeshandler.WriteError(w, r, err)
		return
	}
	h.Metrics.Add(metrics.EventEmployeeDeleted, 1)
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionEmployeeDelete, "employee", payload.EmployeeID, nil, report)
	api.Success(w, report, requestID)
}

func (h *Handler) handleMigrate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload migrateRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.ValidateStruct(payload)
	if v.Reject(w, requestID) {
		return
	}

	companyID := strings.TrimSpace(payload.CompanyID)
	var result companies.MigrationResult
	_, err := h.Jobs.RunNow(r.Context(), jobs.JobCompanyMigration, companyID, func(ctx context.Context) (any, error) {
		var err error
		result, err = h.Companies.MigrateLegacyData(ctx, companyID)
		return result, err
	})
	switch {
	case errors.Is(err, companies.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "company not found", requestID)
		return
	case errors.Is(err, companies.ErrInactive):
		api.Fail(w, http.StatusConflict, "invalid_state", "company is inactive", requestID)
		return
	case err != nil:
		logger.From(r.Context()).Error().Err(err).Str("companyId", companyID).Msg("company migration failed")
		api.Fail(w, http.StatusInternalServerError, "migration_failed", "company data migration failed", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionCompanyMigrate, "company", companyID, nil, result)
	api.Success(w, result, requestID)
}
