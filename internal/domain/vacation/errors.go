package vacation

import "errors"

var (
	ErrInvalidRange     = errors.New("end date before start date")
	ErrPeriodNotAllowed = errors.New("vacation period not open for requests")
	ErrOverlap          = errors.New("request overlaps an existing request")
	ErrNotFound         = errors.New("vacation request not found")
	ErrInvalidState     = errors.New("invalid state")
	ErrForbidden        = errors.New("forbidden")
	ErrBalanceNotFound  = errors.New("vacation balance not found")
)
