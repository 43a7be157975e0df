package authhandler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"timeclock/internal/domain/auth"
	"timeclock/internal/platform/logger"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/middleware"
	"timeclock/internal/transport/http/shared"
)

type UserStore interface {
	FindActiveUserByEmail(ctx context.Context, email string) (auth.AuthUser, error)
	Profile(ctx context.Context, userID string) (auth.AuthUser, error)
}

type Handler struct {
	Users  UserStore
	Secret string
	TTL    time.Duration
}

func NewHandler(users UserStore, secret string, ttl time.Duration) *Handler {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Handler{Users: users, Secret: secret, TTL: ttl}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterPublicRoutes mounts the routes reachable without a token.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.HandleMe)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	payload.Email = strings.TrimSpace(payload.Email)
	v := shared.NewValidator()
	v.ValidateStruct(payload)
	if v.Reject(w, requestID) {
		return
	}

	user, err := h.Users.FindActiveUserByEmail(r.Context(), payload.Email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			logger.From(r.Context()).Error().Err(err).Msg("login lookup failed")
		}
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{UserID: user.ID, CompanyID: user.CompanyID, Role: user.Role}, h.TTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}

	logger.From(r.Context()).Info().Str("userId", user.ID).Str("role", user.Role).Msg("login")
	api.Success(w, map[string]any{
		"token":     token,
		"expiresIn": int(h.TTL.Seconds()),
		"user":      profileView(user),
	}, requestID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	profile, err := h.Users.Profile(r.Context(), user.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusNotFound, "not_found", "profile not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "profile_failed", "failed to load profile", requestID)
		return
	}
	permissions := auth.RolePermissions[profile.Role]
	api.Success(w, map[string]any{
		"user":        profileView(profile),
		"permissions": permissions,
	}, requestID)
}

func profileView(u auth.AuthUser) map[string]string {
	return map[string]string{
		"id":        u.ID,
		"companyId": u.CompanyID,
		"role":      u.Role,
		"fullName":  u.FullName,
		"email":     u.Email,
	}
}
