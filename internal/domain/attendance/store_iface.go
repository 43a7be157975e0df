package attendance

import (
	"context"
	"time"
)

type StoreAPI interface {
	CheckIn(ctx context.Context, in PunchInput, date, at time.Time) (Entry, error)
	CheckOut(ctx context.Context, in PunchInput, at time.Time) (Entry, error)
	EntryForDate(ctx context.Context, employeeID string, date time.Time) (*Entry, error)
	EntriesBetween(ctx context.Context, employeeID string, from, to time.Time) ([]Entry, error)
	List(ctx context.Context, filter ListFilter) ([]Entry, error)
	Get(ctx context.Context, companyID, entryID string) (Entry, error)
	Update(ctx context.Context, entryID string, checkIn time.Time, checkOut *time.Time, notes string) (Entry, error)
	Delete(ctx context.Context, companyID, entryID string) (bool, error)
	InsertRegularized(ctx context.Context, employeeID, companyID string, entries []PlannedEntry) (int64, error)
}
