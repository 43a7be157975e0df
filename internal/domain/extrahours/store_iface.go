package extrahours

import "context"

type StoreAPI interface {
	Totals(ctx context.Context, employeeID string) (Totals, error)
	ListGrants(ctx context.Context, filter ListFilter) ([]Grant, error)
	CreateGrant(ctx context.Context, in GrantInput) (Grant, error)
	ListCompensatory(ctx context.Context, filter ListFilter) ([]CompensatoryDay, error)
	CreateCompensatory(ctx context.Context, in CompensatoryInput) (CompensatoryDay, error)
	ListRequests(ctx context.Context, filter ListFilter) ([]UsageRequest, error)
	GetRequest(ctx context.Context, companyID, requestID string) (UsageRequest, error)
	CreateRequest(ctx context.Context, in UsageInput) (UsageRequest, error)
	DecideRequest(ctx context.Context, requestID, status, approverID, comments string) (bool, error)
}
