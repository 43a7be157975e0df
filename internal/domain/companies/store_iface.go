package companies

import "context"

type StoreAPI interface {
	List(ctx context.Context, includeInactive bool) ([]Company, error)
	Get(ctx context.Context, id string) (Company, error)
	Create(ctx context.Context, in CompanyInput) (Company, error)
	Update(ctx context.Context, id string, in CompanyInput) (Company, error)
	SetActive(ctx context.Context, id string, active bool) error
	Stats(ctx context.Context, id string) (Stats, error)
	BackfillCompany(ctx context.Context, table, companyID string) (int64, error)
}
