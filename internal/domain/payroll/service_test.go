package payroll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/domain/notifications"
)

type fakeStore struct {
	records map[string]Record
	paths   map[string]string
}

func newFakeStore(records ...Record) *fakeStore {
	f := &fakeStore{records: map[string]Record{}, paths: map[string]string{}}
	for _, r := range records {
		f.records[r.ID] = r
	}
	return f
}

func (f *fakeStore) List(context.Context, ListFilter) ([]Record, error) { return nil, nil }

func (f *fakeStore) Get(_ context.Context, companyID, id string) (Record, error) {
	r, ok := f.records[id]
	if !ok || (companyID != "" && r.CompanyID != companyID) {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) Create(_ context.Context, companyID string, in RecordInput, net decimal.Decimal) (Record, error) {
	for _, r := range f.records {
		if r.EmployeeID == in.EmployeeID && r.Month == in.Month && r.Year == in.Year {
			return Record{}, ErrDuplicate
		}
	}
	r := Record{ID: "r-new", EmployeeID: in.EmployeeID, CompanyID: companyID, Month: in.Month, Year: in.Year,
		BaseSalary: in.BaseSalary, Overtime: in.Overtime, Deductions: in.Deductions, Bonuses: in.Bonuses,
		NetSalary: net, Status: StatusDraft}
	f.records[r.ID] = r
	return r, nil
}

func (f *fakeStore) Update(_ context.Context, id string, in RecordInput, net decimal.Decimal) (Record, error) {
	r := f.records[id]
	r.BaseSalary, r.Overtime, r.Deductions, r.Bonuses, r.NetSalary = in.BaseSalary, in.Overtime, in.Deductions, in.Bonuses, net
	f.records[id] = r
	return r, nil
}

func (f *fakeStore) SetStatus(_ context.Context, id, from, to string) (bool, error) {
	r := f.records[id]
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	f.records[id] = r
	return true, nil
}

func (f *fakeStore) SetDocumentPath(_ context.Context, id, path string) error {
	r := f.records[id]
	r.DocumentPath = path
	f.records[id] = r
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := f.records[id]; !ok {
		return false, nil
	}
	delete(f.records, id)
	return true, nil
}

type memObjects struct {
	data map[string][]byte
}

func (m *memObjects) Put(_ context.Context, key string, data []byte) error {
	m.data[key] = data
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, errors.New("missing object")
	}
	return data, nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

type fakeNotifier struct {
	sent []notifications.Notification
}

func (n *fakeNotifier) Notify(_ context.Context, msg notifications.Notification) error {
	n.sent = append(n.sent, msg)
	return nil
}

func newTestService(store *fakeStore, notifier Notifier) (*Service, *memObjects) {
	objects := &memObjects{data: map[string][]byte{}}
	svc := NewService(store, objects, notifier)
	svc.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, objects
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateComputesNetSalary(t *testing.T) {
	svc, _ := newTestService(newFakeStore(), nil)

	rec, err := svc.Create(context.Background(), "c1", RecordInput{
		EmployeeID: "e1", Month: 5, Year: 2024,
		BaseSalary: amount("2000"), Overtime: amount("150.55"), Bonuses: amount("50"), Deductions: amount("300.10"),
	})
	require.NoError(t, err)
	assert.True(t, rec.NetSalary.Equal(amount("1900.45")), rec.NetSalary.String())
	assert.Equal(t, StatusDraft, rec.Status)
}

func TestCreateRejectsNegativeAmountsAndDuplicates(t *testing.T) {
	svc, _ := newTestService(newFakeStore(Record{ID: "r1", EmployeeID: "e1", Month: 5, Year: 2024, Status: StatusDraft}), nil)

	_, err := svc.Create(context.Background(), "c1", RecordInput{EmployeeID: "e1", Month: 6, Year: 2024, BaseSalary: amount("-1")})
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = svc.Create(context.Background(), "c1", RecordInput{EmployeeID: "e1", Month: 5, Year: 2024, BaseSalary: amount("1")})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUpdateOnlyDrafts(t *testing.T) {
	store := newFakeStore(
		Record{ID: "draft", EmployeeID: "e1", CompanyID: "c1", Month: 5, Year: 2024, Status: StatusDraft},
		Record{ID: "paid", EmployeeID: "e1", CompanyID: "c1", Month: 4, Year: 2024, Status: StatusPaid},
	)
	svc, _ := newTestService(store, nil)

	_, after, err := svc.Update(context.Background(), "c1", "draft", RecordInput{Month: 5, Year: 2024, BaseSalary: amount("1000"), Deductions: amount("100")})
	require.NoError(t, err)
	assert.True(t, after.NetSalary.Equal(amount("900")))

	_, _, err = svc.Update(context.Background(), "c1", "paid", RecordInput{Month: 4, Year: 2024})
	assert.ErrorIs(t, err, ErrNotEditable)
}

func TestSetStatusFollowsLifecycle(t *testing.T) {
	store := newFakeStore(Record{ID: "r1", EmployeeID: "e1", CompanyID: "c1", Month: 5, Year: 2024, Status: StatusDraft})
	notifier := &fakeNotifier{}
	svc, _ := newTestService(store, notifier)
	ctx := context.Background()

	_, err := svc.SetStatus(ctx, "c1", "r1", StatusPaid)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	rec, err := svc.SetStatus(ctx, "c1", "r1", StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, rec.Status)

	rec, err = svc.SetStatus(ctx, "c1", "r1", StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, rec.Status)

	_, err = svc.SetStatus(ctx, "c1", "r1", StatusDraft)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, notifications.TypePayrollPublished, notifier.sent[0].Type)
	assert.Equal(t, "e1", notifier.sent[0].UserID)
}

func TestOtherCompanyRecordIsHidden(t *testing.T) {
	svc, _ := newTestService(newFakeStore(Record{ID: "r1", CompanyID: "c1", Status: StatusDraft}), nil)

	_, err := svc.Get(context.Background(), "c2", "r1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadDocumentValidatesContent(t *testing.T) {
	store := newFakeStore(Record{ID: "r1", CompanyID: "c1", Status: StatusDraft})
	svc, objects := newTestService(store, nil)
	ctx := context.Background()

	_, err := svc.UploadDocument(ctx, "c1", "r1", []byte("just some text"))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = svc.UploadDocument(ctx, "c1", "r1", make([]byte, MaxDocumentBytes+1))
	assert.ErrorIs(t, err, ErrDocumentTooLarge)

	pdf := []byte("%PDF-1.4\n%fake body\n")
	rec, err := svc.UploadDocument(ctx, "c1", "r1", pdf)
	require.NoError(t, err)
	assert.True(t, rec.HasDocument)
	assert.Equal(t, pdf, objects.data[DocumentKey("r1")])

	_, data, err := svc.Document(ctx, "c1", "r1")
	require.NoError(t, err)
	assert.Equal(t, pdf, data)
}

func TestDocumentMissing(t *testing.T) {
	svc, _ := newTestService(newFakeStore(Record{ID: "r1", CompanyID: "c1"}), nil)

	_, _, err := svc.Document(context.Background(), "c1", "r1")
	assert.ErrorIs(t, err, ErrDocumentMissing)
}

func TestGenerateDocumentStoresPayslip(t *testing.T) {
	store := newFakeStore(Record{ID: "r1", CompanyID: "c1", EmployeeName: "Ana", Month: 5, Year: 2024,
		BaseSalary: amount("1000"), NetSalary: amount("1000"), Status: StatusApproved})
	svc, objects := newTestService(store, nil)

	rec, err := svc.GenerateDocument(context.Background(), "c1", "r1")
	require.NoError(t, err)
	assert.Equal(t, DocumentKey("r1"), rec.DocumentPath)
	assert.Equal(t, DocumentKey("r1"), store.records["r1"].DocumentPath)
	assert.NotEmpty(t, objects.data[DocumentKey("r1")])
}

func TestDeleteRemovesDraftAndDocument(t *testing.T) {
	store := newFakeStore(
		Record{ID: "r1", CompanyID: "c1", Status: StatusDraft, DocumentPath: DocumentKey("r1")},
		Record{ID: "r2", CompanyID: "c1", Status: StatusApproved},
	)
	svc, objects := newTestService(store, nil)
	objects.data[DocumentKey("r1")] = []byte("%PDF")

	_, err := svc.Delete(context.Background(), "c1", "r1")
	require.NoError(t, err)
	assert.NotContains(t, objects.data, DocumentKey("r1"))
	assert.NotContains(t, store.records, "r1")

	_, err = svc.Delete(context.Background(), "c1", "r2")
	assert.ErrorIs(t, err, ErrNotEditable)
}
