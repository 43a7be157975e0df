package employees

import (
	"strings"

	"timeclock/internal/domain/auth"
)

// CanCreate checks whether actor may create an employee described by in.
// Admins are limited to their own company and never create super admins.
func CanCreate(actor auth.UserContext, in CreateInput) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if len(in.Password) < MinPasswordLength {
		return ErrWeakPassword
	}
	if err := CanAssignRole(actor, in.Role); err != nil {
		return err
	}
	if actor.IsSuperAdmin() {
		return nil
	}
	if actor.CompanyID == "" {
		return ErrCompanyRequired
	}
	if in.CompanyID != "" && in.CompanyID != actor.CompanyID {
		return ErrOtherCompany
	}
	return nil
}

func CanAssignRole(actor auth.UserContext, role string) error {
	switch role {
	case "", auth.RoleEmployee, auth.RoleAdmin:
		return nil
	case auth.RoleSuperAdmin:
		if actor.IsSuperAdmin() {
			return nil
		}
	}
	return ErrRoleNotAllowed
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
