package companieshandler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/domain/audit"
	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/companies"
	"timeclock/internal/platform/logger"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

type Handler struct {
	Service *companies.Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
}

func NewHandler(service *companies.Service, perms middleware.PermissionStore, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/companies", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermCompaniesManage, h.Perms))
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{companyID}", h.handleGet)
		r.Put("/{companyID}", h.handleUpdate)
		r.Put("/{companyID}/status", h.handleStatus)
		r.Get("/{companyID}/stats", h.handleStats)
	})
}

type statusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("includeInactive"))
	items, err := h.Service.List(r.Context(), includeInactive)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	company, err := h.Service.Get(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, company, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload companies.CompanyInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.ValidateStruct(payload)
	if v.Reject(w, requestID) {
		return
	}
	company, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionCompanyCreate, "company", company.ID, nil, company)
	api.Created(w, company, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload companies.CompanyInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.ValidateStruct(payload)
	if v.Reject(w, requestID) {
		return
	}
	companyID := chi.URLParam(r, "companyID")
	before, err := h.Service.Get(r.Context(), companyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	after, err := h.Service.Update(r.Context(), companyID, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionCompanyUpdate, "company", companyID, before, after)
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
	companyID := chi.URLParam(r, "companyID")
	if err := h.Service.SetActive(r.Context(), companyID, *payload.Active); err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionCompanyUpdate, "company", companyID, nil, map[string]bool{"isActive": *payload.Active})
	api.Success(w, map[string]bool{"isActive": *payload.Active}, requestID)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, companies.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "company not found", requestID)
	case errors.Is(err, companies.ErrNameTaken):
		api.Fail(w, http.StatusConflict, "name_taken", "company name already exists", requestID)
	case errors.Is(err, companies.ErrInactive):
		api.Fail(w, http.StatusConflict, "invalid_state", "company is inactive", requestID)
	default:
		logger.From(r.Context()).Error().Err(err).Msg("company request failed")
		api.Fail(w, http.StatusInternalServerError, "company_failed", "company operation failed", requestID)
	}
}
