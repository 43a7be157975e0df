package schedulechanges

import "errors"

var (
	ErrNotFound     = errors.New("schedule change request not found")
	ErrInvalidTimes = errors.New("requested check-out must be after check-in")
	ErrInvalidState = errors.New("invalid state")
)
