package exportshandler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/exports"
	"timeclock/internal/platform/logger"
	"timeclock/internal/platform/metrics"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	Service *exports.Service
	Perms   middleware.PermissionStore
	Now     func() time.Time
	Metrics *metrics.Collector
}

func NewHandler(service *exports.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermExportsRead, h.Perms)).Get("/exports/{kind}", h.handleExport)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	kind := chi.URLParam(r, "kind")
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = exports.FormatCSV
	}
	from, errFrom := shared.OptionalDate(r, "from")
	to, errTo := shared.OptionalDate(r, "to")
	v := shared.NewValidator()
	v.Enum("kind", kind, []string{exports.KindAttendance, exports.KindVacations, exports.KindScheduleChanges}, "must be attendance, vacations or schedule-changes")
	if !exports.ValidFormat(format) {
		v.Add("format", "must be csv or xlsx")
	}
	if errFrom != nil {
		v.Add("from", "must be a valid date in YYYY-MM-DD format")
	}
	if errTo != nil {
		v.Add("to", "must be a valid date in YYYY-MM-DD format")
	}
	if v.Reject(w, requestID) {
		return
	}

	filter := exports.Filter{
		CompanyID:  shared.CompanyScope(r, user),
		EmployeeID: strings.TrimSpace(r.URL.Query().Get("employeeId")),
		Status:     strings.TrimSpace(r.URL.Query().Get("status")),
		From:       from,
		To:         to,
	}

	// Buffer so a failed build still yields an envelope instead of a
	// truncated attachment.
	var buf bytes.Buffer
	if err := h.Service.Write(r.Context(), &buf, kind, format, filter); err != nil {
		if errors.Is(err, exports.ErrUnknownKind) || errors.Is(err, exports.ErrUnknownFormat) {
			api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
			return
		}
		logger.From(r.Context()).Error().Err(err).Str("kind", kind).Msg("export failed")
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to build export", requestID)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == exports.FormatXLSX {
		contentType = xlsxContentType
	}
	h.Metrics.Add(metrics.EventExport, 1)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exports.Filename(kind, format, h.Now().In(h.Service.Location))))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.From(r.Context()).Warn().Err(err).Msg("export write failed")
	}
}
