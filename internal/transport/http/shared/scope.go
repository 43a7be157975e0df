package shared

import (
	"context"
	"net/http"
	"strings"
	"time"

	"timeclock/internal/domain/auth"
	"timeclock/internal/platform/logger"
)

// CompanyScope is the company filter applied to user's queries. Super admins
// see every company unless they pass ?companyId.
func CompanyScope(r *http.Request, user auth.UserContext) string {
	if user.IsSuperAdmin() {
		return strings.TrimSpace(r.URL.Query().Get("companyId"))
	}
	return user.CompanyID
}

// TargetEmployee resolves whose data a request is about. Employees always
// act on themselves; admins may name another employee.
func TargetEmployee(user auth.UserContext, requested string) string {
	requested = strings.TrimSpace(requested)
	if !user.IsAdmin() || requested == "" {
		return user.UserID
	}
	return requested
}

// OptionalDate parses the query parameter key as a calendar date, returning
// nil when it is absent.
func OptionalDate(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	parsed, err := ParseDateIn(raw, time.UTC)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

type Auditor interface {
	Record(ctx context.Context, companyID, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
}

// RecordAudit writes an audit event for user. Failures are logged and never
// fail the request.
func RecordAudit(r *http.Request, auditor Auditor, user auth.UserContext, requestID, action, entityType, entityID string, before, after any) {
	if auditor == nil {
		return
	}
	if err := auditor.Record(r.Context(), user.CompanyID, user.UserID, action, entityType, entityID, requestID, ClientIP(r), before, after); err != nil {
		logger.From(r.Context()).Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}

// EmployeeDirectory reports which company an employee belongs to, failing
// when the employee is outside companyScope.
type EmployeeDirectory interface {
	CompanyOf(ctx context.Context, companyScope, employeeID string) (string, error)
}

// ResolveTarget returns the employee a request acts on and that employee's
// company. Targets other than the caller are looked up in dir.
func ResolveTarget(r *http.Request, user auth.UserContext, requested string, dir EmployeeDirectory) (string, string, error) {
	target := TargetEmployee(user, requested)
	if target == user.UserID || dir == nil {
		return target, user.CompanyID, nil
	}
	companyID, err := dir.CompanyOf(r.Context(), CompanyScope(r, user), target)
	if err != nil {
		return "", "", err
	}
	return target, companyID, nil
}
