package payrollhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/payroll"
	"timeclock/internal/transport/http/middleware"
)

type memStore struct {
	records map[string]payroll.Record
	seq     int
}

func newMemStore(records ...payroll.Record) *memStore {
	m := &memStore{records: map[string]payroll.Record{}}
	for _, r := range records {
		m.records[r.ID] = r
	}
	return m
}

func (m *memStore) List(context.Context, payroll.ListFilter) ([]payroll.Record, error) {
	return nil, nil
}

func (m *memStore) Get(_ context.Context, companyID, recordID string) (payroll.Record, error) {
	r, ok := m.records[recordID]
	if !ok || (companyID != "" && r.CompanyID != companyID) {
		return payroll.Record{}, payroll.ErrNotFound
	}
	return r, nil
}

func (m *memStore) Create(_ context.Context, companyID string, in payroll.RecordInput, net decimal.Decimal) (payroll.Record, error) {
	for _, r := range m.records {
		if r.EmployeeID == in.EmployeeID && r.Month == in.Month && r.Year == in.Year {
			return payroll.Record{}, payroll.ErrDuplicate
		}
	}
	m.seq++
	r := payroll.Record{
		ID:         fmt.Sprintf("p-%d", m.seq),
		EmployeeID: in.EmployeeID,
		CompanyID:  companyID,
		Month:      in.Month,
		Year:       in.Year,
		BaseSalary: in.BaseSalary,
		Overtime:   in.Overtime,
		Deductions: in.Deductions,
		Bonuses:    in.Bonuses,
		NetSalary:  net,
		Status:     payroll.StatusDraft,
	}
	m.records[r.ID] = r
	return r, nil
}

func (m *memStore) Update(_ context.Context, recordID string, in payroll.RecordInput, net decimal.Decimal) (payroll.Record, error) {
	r := m.records[recordID]
	r.BaseSalary, r.Overtime, r.Deductions, r.Bonuses, r.NetSalary = in.BaseSalary, in.Overtime, in.Deductions, in.Bonuses, net
	m.records[recordID] = r
	return r, nil
}

func (m *memStore) SetStatus(_ context.Context, recordID, from, to string) (bool, error) {
	r, ok := m.records[recordID]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	m.records[recordID] = r
	return true, nil
}

func (m *memStore) SetDocumentPath(_ context.Context, recordID, path string) error {
	r := m.records[recordID]
	r.DocumentPath = path
	r.HasDocument = true
	m.records[recordID] = r
	return nil
}

func (m *memStore) Delete(_ context.Context, recordID string) (bool, error) {
	delete(m.records, recordID)
	return true, nil
}

type memObjects map[string][]byte

func (o memObjects) Put(_ context.Context, key string, data []byte) error {
	o[key] = data
	return nil
}

func (o memObjects) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := o[key]
	if !ok {
		return nil, fmt.Errorf("object %q missing", key)
	}
	return data, nil
}

func (o memObjects) Delete(_ context.Context, key string) error {
	delete(o, key)
	return nil
}

var (
	employee = auth.UserContext{UserID: "e-1", CompanyID: "c-1", Role: auth.RoleEmployee}
	admin    = auth.UserContext{UserID: "a-1", CompanyID: "c-1", Role: auth.RoleAdmin}
)

func draft(id, employeeID string) payroll.Record {
	return payroll.Record{ID: id, EmployeeID: employeeID, CompanyID: "c-1", Month: 5, Year: 2024, Status: payroll.StatusDraft}
}

func newTestHandler(store payroll.StoreAPI, objects payroll.ObjectStore) *Handler {
	return NewHandler(payroll.NewService(store, objects, nil), auth.NewStaticPermissions(), nil, nil)
}

func newRouter(h *Handler, user auth.UserContext) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	h.RegisterRoutes(r)
	return r
}

func send(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestEmployeeSeesOnlyOwnRecords(t *testing.T) {
	h := newTestHandler(newMemStore(draft("p-own", "e-1"), draft("p-other", "e-2")), memObjects{})
	router := newRouter(h, employee)

	rec := send(router, http.MethodGet, "/payroll/records/p-own", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = send(router, http.MethodGet, "/payroll/records/p-other", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec).Error.Code)

	rec = send(router, http.MethodGet, "/payroll/records/p-other/document", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmployeeCannotWrite(t *testing.T) {
	router := newRouter(newTestHandler(newMemStore(), memObjects{}), employee)

	rec := send(router, http.MethodPost, "/payroll/records/", map[string]any{"employeeId": "e-1", "month": 5, "year": 2024})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateComputesNetAndRejectsDuplicates(t *testing.T) {
	router := newRouter(newTestHandler(newMemStore(), memObjects{}), admin)
	body := map[string]any{
		"employeeId": "e-1",
		"month":      5,
		"year":       2024,
		"baseSalary": "2000.50",
		"overtime":   "100",
		"bonuses":    "50",
		"deductions": "200.25",
	}

	rec := send(router, http.MethodPost, "/payroll/records/", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created payroll.Record
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.True(t, created.NetSalary.Equal(decimal.RequireFromString("1950.25")), created.NetSalary.String())
	assert.Equal(t, payroll.StatusDraft, created.Status)

	rec = send(router, http.MethodPost, "/payroll/records/", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate", decode(t, rec).Error.Code)
}

func TestCreateRejectsNegativeAmounts(t *testing.T) {
	router := newRouter(newTestHandler(newMemStore(), memObjects{}), admin)

	rec := send(router, http.MethodPost, "/payroll/records/", map[string]any{
		"employeeId": "e-1", "month": 5, "year": 2024, "baseSalary": "-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode(t, rec).Error.Code)
}

func TestStatusMustFollowDraftApprovedPaid(t *testing.T) {
	store := newMemStore(draft("p-1", "e-1"))
	router := newRouter(newTestHandler(store, memObjects{}), admin)

	rec := send(router, http.MethodPost, "/payroll/records/p-1/status", map[string]string{"status": "paid"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", decode(t, rec).Error.Code)

	rec = send(router, http.MethodPost, "/payroll/records/p-1/status", map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = send(router, http.MethodPut, "/payroll/records/p-1", map[string]any{"month": 5, "year": 2024, "baseSalary": "10"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = send(router, http.MethodPost, "/payroll/records/p-1/status", map[string]string{"status": "paid"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, payroll.StatusPaid, store.records["p-1"].Status)
}

func TestGeneratedPayslipDownload(t *testing.T) {
	store := newMemStore(draft("p-1", "e-1"))
	objects := memObjects{}
	h := newTestHandler(store, objects)

	rec := send(newRouter(h, employee), http.MethodGet, "/payroll/records/p-1/document", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = send(newRouter(h, admin), http.MethodPost, "/payroll/records/p-1/document/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, objects, payroll.DocumentKey("p-1"))

	rec = send(newRouter(h, employee), http.MethodGet, "/payroll/records/p-1/document", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payslip-2024-05.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}
