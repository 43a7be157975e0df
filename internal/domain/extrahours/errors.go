package extrahours

import "errors"

var (
	ErrInvalidHours        = errors.New("hours must be greater than zero")
	ErrInvalidDays         = errors.New("days must be greater than zero")
	ErrDateTooSoon         = errors.New("requested date must be at least one day ahead")
	ErrInsufficientBalance = errors.New("insufficient extra hours balance")
	ErrNotFound            = errors.New("extra hours request not found")
	ErrInvalidState        = errors.New("invalid state")
)
