package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

type StoreAPI interface {
	List(ctx context.Context, filter ListFilter) ([]Record, error)
	Get(ctx context.Context, companyID, recordID string) (Record, error)
	Create(ctx context.Context, companyID string, in RecordInput, net decimal.Decimal) (Record, error)
	Update(ctx context.Context, recordID string, in RecordInput, net decimal.Decimal) (Record, error)
	SetStatus(ctx context.Context, recordID, from, to string) (bool, error)
	SetDocumentPath(ctx context.Context, recordID, path string) error
	Delete(ctx context.Context, recordID string) (bool, error)
}

// ObjectStore keeps payroll documents by object path.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
