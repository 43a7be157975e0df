package vacation

import (
	"context"
	"time"
)

type StoreAPI interface {
	ListRequests(ctx context.Context, filter ListFilter) ([]Request, error)
	GetRequest(ctx context.Context, companyID, requestID string) (Request, error)
	NonRejectedRequests(ctx context.Context, employeeID string) ([]Request, error)
	CreateRequest(ctx context.Context, in CreateInput, totalDays int) (Request, error)
	DecideRequest(ctx context.Context, d Decision) (bool, error)
	DeletePendingRequest(ctx context.Context, employeeID, requestID string) (bool, error)
	GetBalance(ctx context.Context, employeeID string, year int) (Balance, error)
	RecomputeBalance(ctx context.Context, employeeID, companyID string, year int, periodStart, periodEnd time.Time, defaultDays int) (Balance, error)
	SetBalanceTotal(ctx context.Context, employeeID, companyID string, year int, periodStart, periodEnd time.Time, totalDays int) (Balance, error)
	OpenPeriod(ctx context.Context, year, defaultDays int) (int64, error)
}
