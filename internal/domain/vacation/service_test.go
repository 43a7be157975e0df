package vacation

import (
	"context"
	"errors"
	"testing"
	"time"

	"timeclock/internal/domain/notifications"
)

type fakeStore struct {
	requests   map[string]Request
	balances   map[int]Balance
	created    []Request
	recomputed []int
	nextID     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{requests: map[string]Request{}, balances: map[int]Balance{}}
}

func (f *fakeStore) ListRequests(context.Context, ListFilter) ([]Request, error) {
	out := []Request{}
	for _, r := range f.requests {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) GetRequest(_ context.Context, _, id string) (Request, error) {
	r, ok := f.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) NonRejectedRequests(_ context.Context, employeeID string) ([]Request, error) {
	out := []Request{}
	for _, r := range f.requests {
		if r.EmployeeID == employeeID && r.Status != StatusRejected {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateRequest(_ context.Context, in CreateInput, totalDays int) (Request, error) {
	f.nextID++
	r := Request{
		ID:         string(rune('a' + f.nextID)),
		EmployeeID: in.EmployeeID,
		CompanyID:  in.CompanyID,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		TotalDays:  totalDays,
		Status:     StatusPending,
		Reason:     in.Reason,
	}
	f.requests[r.ID] = r
	f.created = append(f.created, r)
	return r, nil
}

func (f *fakeStore) DecideRequest(ctx context.Context, d Decision) (bool, error) {
	r, ok := f.requests[d.RequestID]
	if !ok || r.Status != StatusPending {
		return false, nil
	}
	r.Status = d.Status
	r.ApprovedBy = d.ApproverID
	r.AdminComments = d.Comments
	f.requests[d.RequestID] = r
	if _, err := f.RecomputeBalance(ctx, d.EmployeeID, d.CompanyID, d.Year, d.PeriodStart, d.PeriodEnd, d.DefaultDays); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeStore) DeletePendingRequest(_ context.Context, employeeID, id string) (bool, error) {
	r, ok := f.requests[id]
	if !ok || r.EmployeeID != employeeID || r.Status != StatusPending {
		return false, nil
	}
	delete(f.requests, id)
	return true, nil
}

func (f *fakeStore) GetBalance(_ context.Context, _ string, year int) (Balance, error) {
	b, ok := f.balances[year]
	if !ok {
		return Balance{}, ErrBalanceNotFound
	}
	return b, nil
}

func (f *fakeStore) RecomputeBalance(_ context.Context, employeeID, companyID string, year int, start, end time.Time, defaultDays int) (Balance, error) {
	f.recomputed = append(f.recomputed, year)
	b, ok := f.balances[year]
	if !ok {
		b = Balance{EmployeeID: employeeID, CompanyID: companyID, Year: year, TotalDays: defaultDays}
	}
	used := 0
	for _, r := range f.requests {
		if r.EmployeeID == employeeID && r.Status == StatusApproved && !r.StartDate.Before(start) && !r.StartDate.After(end) {
			used += r.TotalDays
		}
	}
	b.UsedDays = used
	b.RemainingDays = b.TotalDays - used
	f.balances[year] = b
	return b, nil
}

func (f *fakeStore) SetBalanceTotal(ctx context.Context, employeeID, companyID string, year int, start, end time.Time, total int) (Balance, error) {
	b := f.balances[year]
	b.TotalDays = total
	f.balances[year] = b
	return f.RecomputeBalance(ctx, employeeID, companyID, year, start, end, total)
}

func (f *fakeStore) OpenPeriod(context.Context, int, int) (int64, error) { return 3, nil }

type fakeNotifier struct {
	direct []notifications.Notification
	admins []notifications.Notification
}

func (n *fakeNotifier) Notify(_ context.Context, msg notifications.Notification) error {
	n.direct = append(n.direct, msg)
	return nil
}

func (n *fakeNotifier) NotifyAdmins(_ context.Context, _, _ string, msg notifications.Notification) {
	n.admins = append(n.admins, msg)
}

func newTestService(store *fakeStore, notifier Notifier, now time.Time) *Service {
	svc := NewService(store, notifier, 22, time.UTC)
	svc.Now = func() time.Time { return now }
	return svc
}

func TestCreateRequestFlagsOverBalance(t *testing.T) {
	store := newFakeStore()
	store.balances[2024] = Balance{EmployeeID: "e1", Year: 2024, TotalDays: 22, UsedDays: 5, RemainingDays: 17}
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, date(2024, 6, 1))

	result, err := svc.CreateRequest(context.Background(), CreateInput{
		EmployeeID: "e1",
		CompanyID:  "c1",
		StartDate:  date(2024, 7, 1),
		EndDate:    date(2024, 7, 20),
		Reason:     "long trip",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Request.Status != StatusPending {
		t.Fatalf("expected pending request, got %s", result.Request.Status)
	}
	if result.Request.TotalDays != 20 {
		t.Fatalf("expected 20 days, got %d", result.Request.TotalDays)
	}
	if !ExceedsAvailable(result.Request.Reason) {
		t.Fatalf("expected marker in reason, got %q", result.Request.Reason)
	}
	if result.Warning == nil || result.Warning.Requested != 20 || result.Warning.Available != 17 {
		t.Fatalf("unexpected warning %+v", result.Warning)
	}
	if len(notifier.admins) != 1 || notifier.admins[0].Type != notifications.TypeVacationSubmitted {
		t.Fatalf("expected admin notification, got %+v", notifier.admins)
	}
}

func TestCreateRequestWithinBalanceHasNoWarning(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeNotifier{}, date(2024, 6, 1))

	result, err := svc.CreateRequest(context.Background(), CreateInput{EmployeeID: "e1", StartDate: date(2024, 8, 5), EndDate: date(2024, 8, 9)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Warning != nil {
		t.Fatalf("did not expect warning, got %+v", result.Warning)
	}
	if ExceedsAvailable(result.Request.Reason) {
		t.Fatal("reason must not be annotated")
	}
}

func TestCreateRequestRejectsOverlap(t *testing.T) {
	store := newFakeStore()
	store.requests["x"] = Request{ID: "x", EmployeeID: "e1", StartDate: date(2024, 8, 1), EndDate: date(2024, 8, 10), Status: StatusApproved}
	store.requests["y"] = Request{ID: "y", EmployeeID: "e1", StartDate: date(2024, 9, 1), EndDate: date(2024, 9, 10), Status: StatusRejected}
	svc := newTestService(store, nil, date(2024, 6, 1))

	_, err := svc.CreateRequest(context.Background(), CreateInput{EmployeeID: "e1", StartDate: date(2024, 8, 10), EndDate: date(2024, 8, 12)})
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}

	// rejected requests do not block
	if _, err := svc.CreateRequest(context.Background(), CreateInput{EmployeeID: "e1", StartDate: date(2024, 9, 5), EndDate: date(2024, 9, 6)}); err != nil {
		t.Fatalf("rejected request should not block, got %v", err)
	}
}

func TestCreateRequestValidatesRangeAndPeriod(t *testing.T) {
	svc := newTestService(newFakeStore(), nil, date(2024, 6, 1))

	_, err := svc.CreateRequest(context.Background(), CreateInput{EmployeeID: "e1", StartDate: date(2024, 8, 10), EndDate: date(2024, 8, 9)})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}

	_, err = svc.CreateRequest(context.Background(), CreateInput{EmployeeID: "e1", StartDate: date(2025, 4, 1), EndDate: date(2025, 4, 2)})
	if !errors.Is(err, ErrPeriodNotAllowed) {
		t.Fatalf("expected ErrPeriodNotAllowed, got %v", err)
	}

	january := newTestService(newFakeStore(), nil, date(2025, 1, 20))
	if _, err := january.CreateRequest(context.Background(), CreateInput{EmployeeID: "e1", StartDate: date(2025, 4, 1), EndDate: date(2025, 4, 2)}); err != nil {
		t.Fatalf("next period should be open in january, got %v", err)
	}
}

func TestApproveRecomputesBalance(t *testing.T) {
	store := newFakeStore()
	store.balances[2024] = Balance{EmployeeID: "e1", Year: 2024, TotalDays: 22}
	store.requests["old"] = Request{ID: "old", EmployeeID: "e1", StartDate: date(2024, 4, 1), EndDate: date(2024, 4, 5), TotalDays: 5, Status: StatusApproved}
	store.requests["r1"] = Request{ID: "r1", EmployeeID: "e1", StartDate: date(2024, 7, 1), EndDate: date(2024, 7, 3), TotalDays: 3, Status: StatusPending}
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, date(2024, 6, 1))

	req, err := svc.Approve(context.Background(), "", "r1", "admin", "enjoy")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if req.Status != StatusApproved || req.ApprovedBy != "admin" {
		t.Fatalf("unexpected request %+v", req)
	}
	b := store.balances[2024]
	if b.UsedDays != 8 || b.RemainingDays != 14 || b.RemainingDays != b.TotalDays-b.UsedDays {
		t.Fatalf("unexpected balance %+v", b)
	}
	if len(notifier.direct) != 1 || notifier.direct[0].UserID != "e1" || notifier.direct[0].Type != notifications.TypeVacationApproved {
		t.Fatalf("expected employee notification, got %+v", notifier.direct)
	}

	if _, err := svc.Reject(context.Background(), "", "r1", "admin", ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for decided request, got %v", err)
	}
}

func TestRejectKeepsBalanceInvariant(t *testing.T) {
	store := newFakeStore()
	store.balances[2024] = Balance{EmployeeID: "e1", Year: 2024, TotalDays: 22, UsedDays: 5, RemainingDays: 17}
	store.requests["done"] = Request{ID: "done", EmployeeID: "e1", StartDate: date(2024, 5, 1), EndDate: date(2024, 5, 5), TotalDays: 5, Status: StatusApproved}
	store.requests["r2"] = Request{ID: "r2", EmployeeID: "e1", StartDate: date(2024, 7, 1), EndDate: date(2024, 7, 20), TotalDays: 20, Status: StatusPending}
	svc := newTestService(store, nil, date(2024, 6, 1))

	if _, err := svc.Reject(context.Background(), "", "r2", "admin", "too long"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	b := store.balances[2024]
	if b.RemainingDays != 17 || b.UsedDays != 5 {
		t.Fatalf("reject must not consume days, got %+v", b)
	}
	if len(store.recomputed) != 1 || store.recomputed[0] != 2024 {
		t.Fatalf("expected recompute of 2024, got %v", store.recomputed)
	}
}

func TestCancelOnlyOwnPending(t *testing.T) {
	store := newFakeStore()
	store.requests["p"] = Request{ID: "p", EmployeeID: "e1", Status: StatusPending}
	store.requests["a"] = Request{ID: "a", EmployeeID: "e1", Status: StatusApproved}
	svc := newTestService(store, nil, date(2024, 6, 1))

	if err := svc.Cancel(context.Background(), "", "e2", "p"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Cancel(context.Background(), "", "e1", "a"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if err := svc.Cancel(context.Background(), "", "e1", "p"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, ok := store.requests["p"]; ok {
		t.Fatal("request should be removed")
	}
}

func TestBalanceDefaultsWhenMissing(t *testing.T) {
	svc := newTestService(newFakeStore(), nil, date(2025, 2, 10))

	b, err := svc.CurrentBalance(context.Background(), "e1", "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Year != 2024 || b.TotalDays != 22 || b.RemainingDays != 22 || b.UsedDays != 0 {
		t.Fatalf("unexpected default balance %+v", b)
	}
	if !b.PeriodEnd.Equal(date(2025, 2, 28)) {
		t.Fatalf("unexpected period end %v", b.PeriodEnd)
	}
}
