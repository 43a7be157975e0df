package employees

import "errors"

var (
	ErrNotFound        = errors.New("employee not found")
	ErrForbidden       = errors.New("not allowed to manage employees")
	ErrWeakPassword    = errors.New("password must be at least 6 characters")
	ErrEmailTaken      = errors.New("email already registered")
	ErrRoleNotAllowed  = errors.New("role cannot be assigned by this caller")
	ErrCompanyRequired = errors.New("company is required")
	ErrOtherCompany    = errors.New("employee belongs to another company")
	ErrDeleteFailed    = errors.New("employee deletion incomplete")
	ErrUnknownTable    = errors.New("unknown dependent table")
)
