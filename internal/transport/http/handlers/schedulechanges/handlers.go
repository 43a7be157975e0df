package schedulechangeshandler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/domain/audit"
	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/schedulechanges"
	"timeclock/internal/platform/logger"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

type Handler struct {
	Service *schedulechanges.Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
	// Location interprets "HH:MM" requested times.
	Location *time.Location
}

func NewHandler(service *schedulechanges.Service, perms middleware.PermissionStore, auditor shared.Auditor, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{Service: service, Perms: perms, Audit: auditor, Location: loc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/schedule-changes", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermScheduleRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermScheduleWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermScheduleApprove, h.Perms)).Post("/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermScheduleApprove, h.Perms)).Post("/{requestID}/reject", h.handleReject)
	})
}

type createRequest struct {
	Date              string `json:"date" validate:"required"`
	RequestedCheckIn  string `json:"requestedCheckIn" validate:"required"`
	RequestedCheckOut string `json:"requestedCheckOut" validate:"required"`
	Reason            string `json:"reason" validate:"max=1000"`
}

type decisionRequest struct {
	Comments string `json:"comments" validate:"max=1000"`
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
		v.Enum("status", status, []string{schedulechanges.StatusPending, schedulechanges.StatusApproved, schedulechanges.StatusRejected}, "must be pending, approved or rejected")
	}
	if v.Reject(w, requestID) {
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	filter := schedulechanges.ListFilter{
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
	var date, checkIn, checkOut time.Time
	if payload.Date != "" {
		parsed, err := shared.ParseDateIn(strings.TrimSpace(payload.Date), h.Location)
		if err != nil {
			v.Add("date", "must be a valid date in YYYY-MM-DD format")
		}
		date = parsed
	}
	if !date.IsZero() {
		var err error
		if payload.RequestedCheckIn != "" {
			if checkIn, err = shared.ParseTimestamp(payload.RequestedCheckIn, date, h.Location); err != nil {
				v.Add("requestedCheckIn", "must be HH:MM or an RFC3339 timestamp")
			}
		}
		if payload.RequestedCheckOut != "" {
			if checkOut, err = shared.ParseTimestamp(payload.RequestedCheckOut, date, h.Location); err != nil {
				v.Add("requestedCheckOut", "must be HH:MM or an RFC3339 timestamp")
			}
		}
	}
	if !checkIn.IsZero() && !checkOut.IsZero() && !checkOut.After(checkIn) {
		v.Add("requestedCheckOut", "must be after requestedCheckIn")
	}
	if v.Reject(w, requestID) {
		return
	}

	req, err := h.Service.Create(r.Context(), schedulechanges.CreateInput{
		EmployeeID:        user.UserID,
		CompanyID:         user.CompanyID,
		RequestedDate:     date,
		RequestedCheckIn:  checkIn,
		RequestedCheckOut: checkOut,
		Reason:            payload.Reason,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Created(w, req, requestID)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Approve)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, companyID, requestID, approverID, comments string) (schedulechanges.Decision, error)) {
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

	changeID := chi.URLParam(r, "requestID")
	decision, err := fn(r.Context(), shared.CompanyScope(r, user), changeID, user.UserID, strings.TrimSpace(payload.Comments))
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, requestID, audit.ActionScheduleDecision, "schedule_change_request", changeID, nil, map[string]any{
		"status":       decision.Request.Status,
		"entryUpdated": decision.EntryUpdated,
	})
	api.Success(w, decision, requestID)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, schedulechanges.ErrInvalidTimes):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "requestedCheckOut", Reason: "must be after requestedCheckIn"}})
	case errors.Is(err, schedulechanges.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "request is no longer pending", requestID)
	case errors.Is(err, schedulechanges.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	default:
		logger.From(r.Context()).Error().Err(err).Msg("schedule change request failed")
		api.Fail(w, http.StatusInternalServerError, "schedule_change_failed", "schedule change operation failed", requestID)
	}
}
