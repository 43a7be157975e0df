package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"timeclock/internal/platform/logger"
	"timeclock/internal/transport/http/api"
	"timeclock/internal/transport/http/shared"
)

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*windowLimiter)

// WithKeyFunc overrides the default actor-then-IP key.
func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(l *windowLimiter) {
		if fn != nil {
			l.keyFn = fn
		}
	}
}

// RateLimit applies a fixed-window limit to every request.
func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	l := newWindowLimiter(limit, window, actorOrIPKey)
	for _, opt := range opts {
		opt(l)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.allow(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit adds tighter limits on login, clock punches,
// approvals, payroll document changes and the administrative functions.
// Reads are never counted.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	loginLimit := max(baseLimit/4, 1)
	mutationLimit := max(baseLimit/2, 1)
	loginChain := []*windowLimiter{
		newWindowLimiter(loginLimit, window, shared.ClientIP),
		newWindowLimiter(loginLimit, window, AuthEmailOrIPKey("email")),
	}
	mutationChain := []*windowLimiter{newWindowLimiter(mutationLimit, window, actorOrIPKey)}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var chain []*windowLimiter
			switch classifyMutation(r) {
			case mutationLogin:
				chain = loginChain
			case mutationActor:
				chain = mutationChain
			}
			for _, l := range chain {
				if !l.allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthEmailOrIPKey keys on a JSON body field, restoring the body for the
// next handler. Requests without the field fall back to the client IP.
func AuthEmailOrIPKey(field string) RateLimitKeyFunc {
	field = strings.TrimSpace(field)
	if field == "" {
		field = "email"
	}
	return func(r *http.Request) string {
		value := peekJSONString(r, field)
		if value == "" {
			return shared.ClientIP(r)
		}
		return "email:" + strings.ToLower(value)
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.CompanyID + ":" + user.UserID
	}
	return shared.ClientIP(r)
}

type windowCounter struct {
	hits    int
	resetAt time.Time
}

type windowLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	keyFn     RateLimitKeyFunc
	counters  map[string]*windowCounter
	nextSweep time.Time
}

func newWindowLimiter(limit int, window time.Duration, keyFn RateLimitKeyFunc) *windowLimiter {
	if keyFn == nil {
		keyFn = actorOrIPKey
	}
	return &windowLimiter{
		limit:    limit,
		window:   window,
		keyFn:    keyFn,
		counters: make(map[string]*windowCounter),
	}
}

// hit counts one request for key and reports the hits so far in the
// current window plus the time until that window closes.
func (l *windowLimiter) hit(key string, now time.Time) (int, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.nextSweep) {
		for k, c := range l.counters {
			if now.After(c.resetAt) {
				delete(l.counters, k)
			}
		}
		l.nextSweep = now.Add(l.window)
	}

	c, ok := l.counters[key]
	if !ok || now.After(c.resetAt) {
		c = &windowCounter{resetAt: now.Add(l.window)}
		l.counters[key] = c
	}
	c.hits++
	return c.hits, c.resetAt.Sub(now)
}

func (l *windowLimiter) allow(w http.ResponseWriter, r *http.Request) bool {
	if l.limit <= 0 {
		return true
	}
	key := l.keyFn(r)
	if key == "" {
		key = shared.ClientIP(r)
	}

	hits, resetIn := l.hit(key, time.Now())
	resetSec := ceilSeconds(resetIn)

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(l.limit-hits, 0)))
	h.Set("X-RateLimit-Reset", strconv.Itoa(resetSec))
	if hits <= l.limit {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
	logger.From(r.Context()).Warn().
		Str("key", key).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("limit", l.limit).
		Dur("window", l.window).
		Msg("rate limit exceeded")
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

func peekJSONString(r *http.Request, field string) string {
	if r == nil || r.Body == nil {
		return ""
	}
	if !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload map[string]any
	if json.Unmarshal(raw, &payload) != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}

type mutationClass int

const (
	mutationIgnored mutationClass = iota
	mutationLogin
	mutationActor
)

var actorLimitedPaths = map[string]bool{
	"/attendance/check-in":            true,
	"/attendance/check-out":           true,
	"/attendance/regularize":          true,
	"/functions/create-employee":      true,
	"/functions/delete-employee":      true,
	"/functions/migrate-company-data": true,
}

func classifyMutation(r *http.Request) mutationClass {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return mutationIgnored
	}

	path := "/" + strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1"), "/")
	switch {
	case path == "/auth/login":
		return mutationLogin
	case actorLimitedPaths[path]:
		return mutationActor
	case strings.HasSuffix(path, "/approve"), strings.HasSuffix(path, "/reject"):
		return mutationActor
	case strings.HasPrefix(path, "/payroll/records/") &&
		(strings.HasSuffix(path, "/status") || strings.Contains(path, "/document")):
		return mutationActor
	}
	return mutationIgnored
}
