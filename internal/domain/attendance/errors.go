package attendance

import "errors"

var (
	ErrAlreadyCheckedIn = errors.New("already checked in today")
	ErrNotCheckedIn     = errors.New("no open check-in")
	ErrNotFound         = errors.New("time entry not found")
	ErrInvalidTimes     = errors.New("check-out must be after check-in")
	ErrInvalidTemplate  = errors.New("invalid shift template")
)
