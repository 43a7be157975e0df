package extrahours

import (
	"context"
	"errors"
	"testing"
	"time"

	"timeclock/internal/domain/notifications"
)

type fakeStore struct {
	totals   Totals
	requests map[string]UsageRequest
	grants   []GrantInput
}

func (f *fakeStore) Totals(context.Context, string) (Totals, error) { return f.totals, nil }

func (f *fakeStore) ListGrants(context.Context, ListFilter) ([]Grant, error) { return nil, nil }

func (f *fakeStore) CreateGrant(_ context.Context, in GrantInput) (Grant, error) {
	f.grants = append(f.grants, in)
	f.totals.GrantedHours += in.Hours
	return Grant{ID: "g1", EmployeeID: in.EmployeeID, Hours: in.Hours}, nil
}

func (f *fakeStore) ListCompensatory(context.Context, ListFilter) ([]CompensatoryDay, error) {
	return nil, nil
}

func (f *fakeStore) CreateCompensatory(_ context.Context, in CompensatoryInput) (CompensatoryDay, error) {
	f.totals.CompensatoryDays += in.Days
	return CompensatoryDay{ID: "c1", EmployeeID: in.EmployeeID, DaysCount: in.Days}, nil
}

func (f *fakeStore) ListRequests(context.Context, ListFilter) ([]UsageRequest, error) { return nil, nil }

func (f *fakeStore) GetRequest(_ context.Context, _, id string) (UsageRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return UsageRequest{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) CreateRequest(_ context.Context, in UsageInput) (UsageRequest, error) {
	r := UsageRequest{ID: "new", EmployeeID: in.EmployeeID, RequestedDate: in.Date, HoursRequested: in.Hours, Status: StatusPending}
	f.requests[r.ID] = r
	f.totals.PendingHours += in.Hours
	return r, nil
}

func (f *fakeStore) DecideRequest(_ context.Context, id, status, _, _ string) (bool, error) {
	r, ok := f.requests[id]
	if !ok || r.Status != StatusPending {
		return false, nil
	}
	r.Status = status
	f.requests[id] = r
	f.totals.PendingHours -= r.HoursRequested
	if status == StatusApproved {
		f.totals.ApprovedUsedHours += r.HoursRequested
	}
	return true, nil
}

type fakeNotifier struct {
	sent   []notifications.Notification
	admins int
}

func (n *fakeNotifier) Notify(_ context.Context, msg notifications.Notification) error {
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) NotifyAdmins(context.Context, string, string, notifications.Notification) {
	n.admins++
}

func newTestService(store *fakeStore, notifier Notifier) *Service {
	svc := NewService(store, notifier, time.UTC)
	svc.Now = func() time.Time { return time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestRequestUsageRules(t *testing.T) {
	store := &fakeStore{totals: Totals{GrantedHours: 6, CompensatoryDays: 0.5}, requests: map[string]UsageRequest{}}
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier)
	tomorrow := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)

	if _, err := svc.RequestUsage(context.Background(), UsageInput{EmployeeID: "e1", Date: tomorrow, Hours: 0}); !errors.Is(err, ErrInvalidHours) {
		t.Fatalf("expected ErrInvalidHours, got %v", err)
	}
	if _, err := svc.RequestUsage(context.Background(), UsageInput{EmployeeID: "e1", Date: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), Hours: 2}); !errors.Is(err, ErrDateTooSoon) {
		t.Fatalf("expected ErrDateTooSoon, got %v", err)
	}
	if _, err := svc.RequestUsage(context.Background(), UsageInput{EmployeeID: "e1", Date: tomorrow, Hours: 10.5}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	req, err := svc.RequestUsage(context.Background(), UsageInput{EmployeeID: "e1", Date: tomorrow, Hours: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Status != StatusPending {
		t.Fatalf("expected pending, got %s", req.Status)
	}
	if notifier.admins != 1 {
		t.Fatalf("expected admins notified once, got %d", notifier.admins)
	}
}

func TestApproveBlocksNegativeBalance(t *testing.T) {
	store := &fakeStore{
		totals: Totals{GrantedHours: 8},
		requests: map[string]UsageRequest{
			"r1": {ID: "r1", EmployeeID: "e1", HoursRequested: 6, Status: StatusPending},
			"r2": {ID: "r2", EmployeeID: "e1", HoursRequested: 6, Status: StatusPending},
		},
	}
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier)

	if _, err := svc.Approve(context.Background(), "", "r1", "admin", ""); err != nil {
		t.Fatalf("first approval failed: %v", err)
	}
	if _, err := svc.Approve(context.Background(), "", "r2", "admin", ""); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := Available(store.totals); got != 2 {
		t.Fatalf("expected 2 hours left, got %v", got)
	}
	if got := Available(store.totals); got < 0 {
		t.Fatal("balance must never go negative")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Type != notifications.TypeExtraHoursApproved {
		t.Fatalf("unexpected notifications %+v", notifier.sent)
	}
}

func TestRejectOnlyFromPending(t *testing.T) {
	store := &fakeStore{requests: map[string]UsageRequest{
		"done": {ID: "done", EmployeeID: "e1", HoursRequested: 2, Status: StatusApproved},
		"p":    {ID: "p", EmployeeID: "e1", HoursRequested: 2, Status: StatusPending},
	}}
	svc := newTestService(store, nil)

	if _, err := svc.Reject(context.Background(), "", "done", "admin", ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	req, err := svc.Reject(context.Background(), "", "p", "admin", "not this week")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if req.Status != StatusRejected || store.totals.ApprovedUsedHours != 0 {
		t.Fatalf("reject must not debit, got %+v %+v", req, store.totals)
	}
}

func TestGrantsAreUnconditional(t *testing.T) {
	store := &fakeStore{totals: Totals{ApprovedUsedHours: 3}, requests: map[string]UsageRequest{}}
	svc := newTestService(store, &fakeNotifier{})

	if _, err := svc.Grant(context.Background(), GrantInput{EmployeeID: "e1", Hours: 2.5}); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if _, err := svc.GrantCompensatory(context.Background(), CompensatoryInput{EmployeeID: "e1", Days: 1}); err != nil {
		t.Fatalf("compensatory grant failed: %v", err)
	}
	summary, err := svc.Summary(context.Background(), "e1")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.AvailableHours != 7.5 || summary.CompensatoryHours != 8 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if _, err := svc.GrantCompensatory(context.Background(), CompensatoryInput{EmployeeID: "e1", Days: 0}); !errors.Is(err, ErrInvalidDays) {
		t.Fatalf("expected ErrInvalidDays, got %v", err)
	}
}
