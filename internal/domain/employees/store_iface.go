package employees

import (
	"context"
)

type StoreAPI interface {
	List(ctx context.Context, filter ListFilter) ([]Employee, error)
	Get(ctx context.Context, companyID, employeeID string) (Employee, error)
	Update(ctx context.Context, employeeID string, in UpdateInput) (Employee, error)
	SetActive(ctx context.Context, employeeID string, active bool) error
	CreateWithIdentity(ctx context.Context, in CreateInput, passwordHash string, vacationYear, vacationDays int) (Employee, error)
	PayrollDocumentPaths(ctx context.Context, employeeID string) ([]string, error)
	DeleteRows(ctx context.Context, table, employeeID string) (int64, error)
	DeleteIdentity(ctx context.Context, employeeID string) error
}

// ObjectRemover deletes stored payroll documents.
type ObjectRemover interface {
	Delete(ctx context.Context, key string) error
}
