package payrollhandler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"timeclock/internal/domain/audit"
	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/employees"
	"timeclock/internal/domain/payroll"
	"timeclock/internal/platform/logger"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

// multipart overhead allowed on top of the document itself
const multipartSlack = 1 << 20

type Handler struct {
	Service   *payroll.Service
	Perms     middleware.PermissionStore
	Audit     shared.Auditor
	Employees shared.EmployeeDirectory
}

func NewHandler(service *payroll.Service, perms middleware.PermissionStore, auditor shared.Auditor, dir shared.EmployeeDirectory) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor, Employees: dir}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll/records", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/{recordID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Put("/{recordID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/{recordID}/status", h.handleStatus)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Delete("/{recordID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/{recordID}/document", h.handleUpload)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/{recordID}/document", h.handleDownload)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/{recordID}/document/generate", h.handleGenerate)
	})
}

type recordRequest struct {
	EmployeeID string          `json:"employeeId"`
	Month      int             `json:"month" validate:"min=1,max=12"`
	Year       int             `json:"year" validate:"min=2000,max=2100"`
	BaseSalary decimal.Decimal `json:"baseSalary"`
	Overtime   decimal.Decimal `json:"overtime"`
	Deductions decimal.Decimal `json:"deductions"`
	Bonuses    decimal.Decimal `json:"bonuses"`
}

func (p recordRequest) input(employeeID string) payroll.RecordInput {
	return payroll.RecordInput{
		EmployeeID: employeeID,
		Month:      p.Month,
		Year:       p.Year,
		BaseSalary: p.BaseSalary,
		Overtime:   p.Overtime,
		Deductions: p.Deductions,
		Bonuses:    p.Bonuses,
	}
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved paid"`
}

func (h *Handler) decodeRecord(w http.ResponseWriter, r *http.Request, requestID string) (recordRequest, bool) {
	var payload recordRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return payload, false
	}
	v := shared.NewValidator()
	v.ValidateStruct(payload)
	for field, amount := range map[string]decimal.Decimal{
		"baseSalary": payload.BaseSalary,
		"overtime":   payload.Overtime,
		"deductions": payload.Deductions,
		"bonuses":    payload.Bonuses,
	} {
		if amount.IsNegative() {
			v.Add(field, "must not be negative")
		}
	}
	return payload, !v.Reject(w, requestID)
}

// visible loads a record, hiding other employees' records from non-admins.
func (h *Handler) visible(r *http.Request, user auth.UserContext, recordID string) (payroll.Record, error) {
	rec, err := h.Service.Get(r.Context(), shared.CompanyScope(r, user), recordID)
	if err != nil {
		return payroll.Record{}, err
	}
	if !user.IsAdmin() && rec.EmployeeID != user.UserID {
		return payroll.Record{}, payroll.ErrNotFound
	}
	return rec, nil
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	q := r.URL.Query()
	v := shared.NewValidator()
	filter := payroll.ListFilter{CompanyID: shared.CompanyScope(r, user), Status: strings.TrimSpace(q.Get("status"))}
	if raw := q.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			v.Add("year", "must be a number")
		}
		filter.Year = year
	}
	if raw := q.Get("month"); raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil || month < 1 || month > 12 {
			v.Add("month", "must be between 1 and 12")
		}
		filter.Month = month
	}
	if filter.Status != "" {
		v.Enum("status", filter.Status, []string{payroll.StatusDraft, payroll.StatusApproved, payroll.StatusPaid}, "must be draft, approved or paid")
	}
	if v.Reject(w, requestID) {
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	filter.Limit, filter.Offset = page.Limit, page.Offset
	if user.IsAdmin() {
		filter.EmployeeID = strings.TrimSpace(q.Get("employeeId"))
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

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	rec, err := h.visible(r, user, chi.URLParam(r, "recordID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	payload, ok := h.decodeRecord(w, r, requestID)
	if !ok {
		return
	}
	if strings.TrimSpace(payload.EmployeeID) == "" {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "employeeId", Reason: "is required"}})
		return
	}
	employeeID, companyID, err := shared.ResolveTarget(r, user, payload.EmployeeID, h.Employees)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.Service.Create(r.Context(), companyID, payload.input(employeeID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionPayrollWrite, "payroll_record", rec.ID, nil, rec)
	api.Created(w, rec, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	payload, ok := h.decodeRecord(w, r, requestID)
	if !ok {
		return
	}
	recordID := chi.URLParam(r, "recordID")
	before, after, err := h.Service.Update(r.Context(), shared.CompanyScope(r, user), recordID, payload.input(payload.EmployeeID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionPayrollWrite, "payroll_record", recordID, before, after)
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
	recordID := chi.URLParam(r, "recordID")
	rec, err := h.Service.SetStatus(r.Context(), shared.CompanyScope(r, user), recordID, payload.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionPayrollStatus, "payroll_record", recordID, nil, map[string]string{"status": rec.Status})
	api.Success(w, rec, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	recordID := chi.URLParam(r, "recordID")
	rec, err := h.Service.Delete(r.Context(), shared.CompanyScope(r, user), recordID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionPayrollDelete, "payroll_record", recordID, rec, nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if err := r.ParseMultipartForm(payroll.MaxDocumentBytes + multipartSlack); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart payload", requestID)
		return
	}
	file, _, err := r.FormFile("document")
	if err != nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "document", Reason: "is required"}})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, payroll.MaxDocumentBytes+1))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "failed to read document", requestID)
		return
	}

	recordID := chi.URLParam(r, "recordID")
	rec, err := h.Service.UploadDocument(r.Context(), shared.CompanyScope(r, user), recordID, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionPayrollDocument, "payroll_record", recordID, nil, map[string]any{
		"documentPath": rec.DocumentPath,
		"bytes":        len(data),
	})
	api.Success(w, rec, requestID)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	recordID := chi.URLParam(r, "recordID")
	rec, err := h.Service.GenerateDocument(r.Context(), shared.CompanyScope(r, user), recordID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionPayrollDocument, "payroll_record", recordID, nil, map[string]any{
		"documentPath": rec.DocumentPath,
		"generated":    true,
	})
	api.Success(w, rec, requestID)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	rec, err := h.visible(r, user, chi.URLParam(r, "recordID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	_, data, err := h.Service.Document(r.Context(), rec.CompanyID, rec.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payslip-%d-%02d.pdf", rec.Year, rec.Month))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrInvalidPeriod):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "month", Reason: "must be between 1 and 12"}})
	case errors.Is(err, payroll.ErrNegativeAmount):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "amounts", Reason: "must not be negative"}})
	case errors.Is(err, payroll.ErrInvalidDocument):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "document", Reason: "must be a PDF"}})
	case errors.Is(err, payroll.ErrDocumentTooLarge):
		api.Fail(w, http.StatusRequestEntityTooLarge, "document_too_large", "document exceeds 10 MiB", requestID)
	case errors.Is(err, payroll.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "duplicate", "a payroll record already exists for this period", requestID)
	case errors.Is(err, payroll.ErrInvalidTransition), errors.Is(err, payroll.ErrNotEditable):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	case errors.Is(err, payroll.ErrNotFound), errors.Is(err, payroll.ErrDocumentMissing), errors.Is(err, employees.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	default:
		logger.From(r.Context()).Error().Err(err).Msg("payroll request failed")
		api.Fail(w, http.StatusInternalServerError, "payroll_failed", "payroll operation failed", requestID)
	}
}
