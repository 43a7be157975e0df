package schedulechanges

import (
	"context"
	"time"
)

type StoreAPI interface {
	List(ctx context.Context, filter ListFilter) ([]Request, error)
	Get(ctx context.Context, companyID, requestID string) (Request, error)
	CurrentTimes(ctx context.Context, employeeID string, date time.Time) (*time.Time, *time.Time, error)
	Create(ctx context.Context, in CreateInput, currentIn, currentOut *time.Time) (Request, error)
	Decide(ctx context.Context, req Request, status, approverID, comments string) (bool, error)
}
