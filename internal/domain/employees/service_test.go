package employees

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"timeclock/internal/domain/auth"
)

type fakeStore struct {
	employees map[string]Employee
	created   []CreateInput
	hash      string
	year      int
	days      int
	documents []string
	failOn    map[string]error
	deleted   []string
	identity  bool
}

func newFakeStore(emps ...Employee) *fakeStore {
	f := &fakeStore{employees: map[string]Employee{}, failOn: map[string]error{}}
	for _, e := range emps {
		f.employees[e.ID] = e
	}
	return f
}

func (f *fakeStore) List(context.Context, ListFilter) ([]Employee, error) { return nil, nil }

func (f *fakeStore) Get(_ context.Context, companyID, id string) (Employee, error) {
	e, ok := f.employees[id]
	if !ok || (companyID != "" && e.CompanyID != companyID) {
		return Employee{}, ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) Update(_ context.Context, id string, in UpdateInput) (Employee, error) {
	e := f.employees[id]
	e.FullName, e.Department, e.EmployeeCode, e.HireDate, e.Role = in.FullName, in.Department, in.EmployeeCode, in.HireDate, in.Role
	f.employees[id] = e
	return e, nil
}

func (f *fakeStore) SetActive(_ context.Context, id string, active bool) error {
	e := f.employees[id]
	e.IsActive = active
	f.employees[id] = e
	return nil
}

func (f *fakeStore) CreateWithIdentity(_ context.Context, in CreateInput, hash string, year, days int) (Employee, error) {
	f.created = append(f.created, in)
	f.hash, f.year, f.days = hash, year, days
	return Employee{ID: "new", CompanyID: in.CompanyID, Email: in.Email, Role: in.Role, FullName: in.FullName, IsActive: true}, nil
}

func (f *fakeStore) PayrollDocumentPaths(context.Context, string) ([]string, error) {
	return f.documents, nil
}

func (f *fakeStore) DeleteRows(_ context.Context, table, _ string) (int64, error) {
	if err := f.failOn[table]; err != nil {
		return 0, err
	}
	f.deleted = append(f.deleted, table)
	return 1, nil
}

func (f *fakeStore) DeleteIdentity(context.Context, string) error {
	f.identity = true
	return nil
}

type fakeObjects struct {
	removed []string
}

func (o *fakeObjects) Delete(_ context.Context, key string) error {
	o.removed = append(o.removed, key)
	return nil
}

func newTestService(store *fakeStore, objects ObjectRemover) *Service {
	svc := NewService(store, objects, 22, time.UTC)
	svc.Now = func() time.Time { return time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

var (
	adminActor = auth.UserContext{UserID: "a1", CompanyID: "c1", Role: auth.RoleAdmin}
	superActor = auth.UserContext{UserID: "s1", Role: auth.RoleSuperAdmin}
)

func TestCreateScopesAdminToOwnCompany(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	emp, err := svc.Create(context.Background(), adminActor, CreateInput{
		FullName: " Ana Torres ", Email: " Ana@Example.com ", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", emp.CompanyID)
	assert.Equal(t, auth.RoleEmployee, emp.Role)
	assert.Equal(t, "ana@example.com", store.created[0].Email)
	assert.Equal(t, "Ana Torres", store.created[0].FullName)
	// February belongs to the period that opened the previous March.
	assert.Equal(t, 2023, store.year)
	assert.Equal(t, 22, store.days)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.hash), []byte("secret1")))
}

func TestCreateRejectsWeakPassword(t *testing.T) {
	store := newFakeStore()
	_, err := newTestService(store, nil).Create(context.Background(), superActor, CreateInput{Email: "x@example.com", Password: "123"})
	assert.ErrorIs(t, err, ErrWeakPassword)
	assert.Empty(t, store.created)
}

func TestUpdateBlocksPromotionBySuperAdminOnly(t *testing.T) {
	store := newFakeStore(Employee{ID: "e1", CompanyID: "c1", FullName: "Ana", Role: auth.RoleEmployee})
	svc := newTestService(store, nil)

	_, _, err := svc.Update(context.Background(), adminActor, "c1", "e1", UpdateInput{Role: auth.RoleSuperAdmin})
	assert.ErrorIs(t, err, ErrRoleNotAllowed)

	before, after, err := svc.Update(context.Background(), adminActor, "c1", "e1", UpdateInput{Role: auth.RoleAdmin, Department: "Ops"})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleEmployee, before.Role)
	assert.Equal(t, auth.RoleAdmin, after.Role)
	assert.Equal(t, "Ana", after.FullName)
}

func TestDeleteRemovesEverythingInOrder(t *testing.T) {
	store := newFakeStore(Employee{ID: "e1", CompanyID: "c1", Role: auth.RoleEmployee})
	store.documents = []string{"payroll/r1.pdf", "payroll/r2.pdf"}
	objects := &fakeObjects{}
	svc := newTestService(store, objects)

	report, err := svc.Delete(context.Background(), adminActor, "e1")
	require.NoError(t, err)
	assert.Equal(t, DependentTables, store.deleted)
	assert.True(t, report.IdentityDeleted)
	assert.True(t, store.identity)
	assert.Equal(t, 2, report.DocumentsRemoved)
	assert.Equal(t, store.documents, objects.removed)
}

func TestDeleteKeepsIdentityOnFailure(t *testing.T) {
	store := newFakeStore(Employee{ID: "e1", CompanyID: "c1", Role: auth.RoleEmployee})
	store.documents = []string{"payroll/r1.pdf"}
	store.failOn["extra_hours"] = errors.New("lock timeout")
	store.failOn["payroll_records"] = errors.New("fk violation")
	objects := &fakeObjects{}
	svc := newTestService(store, objects)

	report, err := svc.Delete(context.Background(), adminActor, "e1")
	require.ErrorIs(t, err, ErrDeleteFailed)
	assert.Contains(t, err.Error(), "lock timeout")
	assert.Contains(t, err.Error(), "fk violation")
	assert.Len(t, report.Errors, 2)
	assert.Len(t, store.deleted, len(DependentTables)-2)
	assert.False(t, report.IdentityDeleted)
	assert.False(t, store.identity)
	assert.Empty(t, objects.removed)
}

func TestDeleteScopesAdminToCompany(t *testing.T) {
	store := newFakeStore(Employee{ID: "e1", CompanyID: "c2", Role: auth.RoleEmployee})
	svc := newTestService(store, nil)

	_, err := svc.Delete(context.Background(), adminActor, "e1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Delete(context.Background(), auth.UserContext{UserID: "u", CompanyID: "c2", Role: auth.RoleEmployee}, "e1")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCompanyOfRespectsScope(t *testing.T) {
	svc := newTestService(newFakeStore(Employee{ID: "e1", CompanyID: "c2"}), nil)

	companyID, err := svc.CompanyOf(context.Background(), "", "e1")
	require.NoError(t, err)
	assert.Equal(t, "c2", companyID)

	_, err = svc.CompanyOf(context.Background(), "c1", "e1")
	assert.ErrorIs(t, err, ErrNotFound)
}
