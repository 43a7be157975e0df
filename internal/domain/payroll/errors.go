package payroll

import "errors"

var (
	ErrNotFound          = errors.New("payroll record not found")
	ErrDuplicate         = errors.New("payroll record already exists for this period")
	ErrInvalidPeriod     = errors.New("month must be between 1 and 12")
	ErrNegativeAmount    = errors.New("amounts must not be negative")
	ErrInvalidTransition = errors.New("invalid payroll status transition")
	ErrNotEditable       = errors.New("only draft payroll records can be changed")
	ErrDocumentMissing   = errors.New("payroll record has no document")
	ErrInvalidDocument   = errors.New("document must be a PDF")
	ErrDocumentTooLarge  = errors.New("document exceeds size limit")
)
