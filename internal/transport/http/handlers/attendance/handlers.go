package attendancehandler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/domain/attendance"
	"timeclock/internal/domain/audit"
	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/employees"
	"timeclock/internal/platform/logger"
	"timeclock/internal/platform/metrics"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

type Handler struct {
	Service   *attendance.Service
	Perms     middleware.PermissionStore
	Audit     shared.Auditor
	Employees shared.EmployeeDirectory
	Metrics   *metrics.Collector
}

func NewHandler(service *attendance.Service, perms middleware.PermissionStore, auditor shared.Auditor, dir shared.EmployeeDirectory) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor, Employees: dir}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite, h.Perms)).Post("/check-in", h.handleCheckIn)
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite, h.Perms)).Post("/check-out", h.handleCheckOut)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/today", h.handleToday)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/entries", h.handleList)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/summary", h.handleSummary)
		r.With(middleware.RequirePermission(auth.PermAttendanceManage, h.Perms)).Put("/entries/{entryID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermAttendanceManage, h.Perms)).Delete("/entries/{entryID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermAttendanceManage, h.Perms)).Post("/regularize", h.handleRegularize)
	})
}

type punchRequest struct {
	Lat   *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng   *float64 `json:"lng" validate:"omitempty,longitude"`
	Notes string   `json:"notes" validate:"max=500"`
}

type updateRequest struct {
	CheckIn  string  `json:"checkIn"`
	CheckOut string  `json:"checkOut"`
	Notes    *string `json:"notes" validate:"omitempty,max=500"`
}

type regularizeRequest struct {
	EmployeeID string `json:"employeeId"`
}

func (h *Handler) decodePunch(w http.ResponseWriter, r *http.Request, user auth.UserContext) (attendance.PunchInput, bool) {
	requestID := middleware.GetRequestID(r.Context())
	var payload punchRequest
	if r.ContentLength != 0 {
		if !shared.DecodeJSON(w, r, &payload, requestID) {
			return attendance.PunchInput{}, false
		}
	}
	v := shared.NewValidator()
	v.ValidateStruct(payload)
	if (payload.Lat == nil) != (payload.Lng == nil) {
		v.Add("lat", "lat and lng must be sent together")
	}
	if v.Reject(w, requestID) {
		return attendance.PunchInput{}, false
	}
	in := attendance.PunchInput{EmployeeID: user.UserID, CompanyID: user.CompanyID, Notes: strings.TrimSpace(payload.Notes)}
	if payload.Lat != nil && payload.Lng != nil {
		in.Coordinates = &attendance.Coordinates{Lat: *payload.Lat, Lng: *payload.Lng}
	}
	return in, true
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	in, ok := h.decodePunch(w, r, user)
	if !ok {
		return
	}
	entry, err := h.Service.CheckIn(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.Add(metrics.EventCheckIn, 1)
	api.Created(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	in, ok := h.decodePunch(w, r, user)
	if !ok {
		return
	}
	entry, err := h.Service.CheckOut(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.Add(metrics.EventCheckOut, 1)
	api.Success(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	entry, err := h.Service.Today(r.Context(), user.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, map[string]any{"entry": entry}, middleware.GetRequestID(r.Context()))
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
	v := shared.NewValidator()
	if errFrom != nil {
		v.Add("from", "must be a valid date in YYYY-MM-DD format")
	}
	if errTo != nil {
		v.Add("to", "must be a valid date in YYYY-MM-DD format")
	}
	if from != nil && to != nil {
		v.DateOrder("from", *from, "to", *to)
	}
	if v.Reject(w, requestID) {
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	filter := attendance.ListFilter{CompanyID: shared.CompanyScope(r, user), From: from, To: to, Limit: page.Limit, Offset: page.Offset}
	if user.IsAdmin() {
		filter.EmployeeID = strings.TrimSpace(r.URL.Query().Get("employeeId"))
	} else {
		filter.EmployeeID = user.UserID
	}
	entries, err := h.Service.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, entries, requestID)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	employeeID, _, err := shared.ResolveTarget(r, user, r.URL.Query().Get("employeeId"), h.Employees)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.Service.MonthSummary(r.Context(), employeeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
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
	in := attendance.AdminUpdateInput{Notes: payload.Notes}
	if payload.CheckIn != "" {
		if ts, err := time.Parse(time.RFC3339, payload.CheckIn); err != nil {
			v.Add("checkIn", "must be an RFC3339 timestamp")
		} else {
			in.CheckIn = &ts
		}
	}
	if payload.CheckOut != "" {
		if ts, err := time.Parse(time.RFC3339, payload.CheckOut); err != nil {
			v.Add("checkOut", "must be an RFC3339 timestamp")
		} else {
			in.CheckOut = &ts
		}
	}
	if v.Reject(w, requestID) {
		return
	}

	entryID := chi.URLParam(r, "entryID")
	before, after, err := h.Service.AdminUpdate(r.Context(), shared.CompanyScope(r, user), entryID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionAttendanceEdit, "time_entry", entryID, before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	entryID := chi.URLParam(r, "entryID")
	entry, err := h.Service.AdminDelete(r.Context(), shared.CompanyScope(r, user), entryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionAttendanceDelete, "time_entry", entryID, entry, nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleRegularize(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload regularizeRequest
	if r.ContentLength != 0 {
		if !shared.DecodeJSON(w, r, &payload, requestID) {
			return
		}
	}
	employeeID, companyID, err := shared.ResolveTarget(r, user, payload.EmployeeID, h.Employees)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.Service.Regularize(r.Context(), employeeID, companyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if result.EntriesCreated > 0 {
		h.Metrics.Add(metrics.EventRegularizedEntry, uint64(result.EntriesCreated))
		shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionRegularize, "employee", employeeID, nil, map[string]any{
			"entriesCreated": result.EntriesCreated,
			"hoursAdded":     result.HoursAdded,
		})
	}
	api.Success(w, result, requestID)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		api.Fail(w, http.StatusConflict, "already_checked_in", "already checked in today", requestID)
	case errors.Is(err, attendance.ErrNotCheckedIn):
		api.Fail(w, http.StatusConflict, "not_checked_in", "no open check-in to close", requestID)
	case errors.Is(err, attendance.ErrNotFound), errors.Is(err, employees.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, attendance.ErrInvalidTimes):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "checkOut", Reason: "must be after checkIn"}})
	default:
		logger.From(r.Context()).Error().Err(err).Msg("attendance request failed")
		api.Fail(w, http.StatusInternalServerError, "attendance_failed", "attendance operation failed", requestID)
	}
}
