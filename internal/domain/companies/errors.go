package companies

import "errors"

var (
	ErrNotFound     = errors.New("company not found")
	ErrNameTaken    = errors.New("company name already exists")
	ErrInactive     = errors.New("company is inactive")
	ErrUnknownTable = errors.New("table is not tenant scoped")
)
