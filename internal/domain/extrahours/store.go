package extrahours

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"timeclock/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) Totals(ctx context.Context, employeeID string) (Totals, error) {
	return totalsOn(ctx, s.DB, employeeID)
}

func totalsOn(ctx context.Context, q rowQuerier, employeeID string) (Totals, error) {
	var t Totals
	err := q.QueryRow(ctx, `
    SELECT
      (SELECT COALESCE(SUM(hours), 0)::float8 FROM extra_hours WHERE employee_id = $1),
      (SELECT COALESCE(SUM(days_count), 0)::float8 FROM compensatory_days WHERE employee_id = $1),
      (SELECT COALESCE(SUM(hours_requested), 0)::float8 FROM extra_hours_requests WHERE employee_id = $1 AND status = 'approved'),
      (SELECT COALESCE(SUM(hours_requested), 0)::float8 FROM extra_hours_requests WHERE employee_id = $1 AND status = 'pending')
  `, employeeID).Scan(&t.GrantedHours, &t.CompensatoryDays, &t.ApprovedUsedHours, &t.PendingHours)
	return t, err
}

// scopeClause appends company and employee predicates for alias.
func scopeClause(alias string, filter ListFilter, args []any) (string, []any) {
	clause := ""
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		clause += fmt.Sprintf(" AND %s.company_id::text = $%d", alias, len(args))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		clause += fmt.Sprintf(" AND %s.employee_id = $%d", alias, len(args))
	}
	return clause, args
}

func pageClause(filter ListFilter, args []any) (string, []any) {
	if filter.Limit <= 0 {
		return "", args
	}
	args = append(args, filter.Limit, filter.Offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

func (s *Store) ListGrants(ctx context.Context, filter ListFilter) ([]Grant, error) {
	where, args := scopeClause("g", filter, nil)
	page, args := pageClause(filter, args)
	rows, err := s.DB.Query(ctx, `
    SELECT g.id, g.employee_id, p.full_name, COALESCE(g.company_id::text, ''), g.date, g.hours::float8,
           g.reason, COALESCE(g.granted_by::text, ''), g.created_at
    FROM extra_hours g
    JOIN profiles p ON p.id = g.employee_id
    WHERE 1=1`+where+`
    ORDER BY g.date DESC, g.created_at DESC`+page, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Grant{}
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.ID, &g.EmployeeID, &g.EmployeeName, &g.CompanyID, &g.Date, &g.Hours, &g.Reason, &g.GrantedBy, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) CreateGrant(ctx context.Context, in GrantInput) (Grant, error) {
	g := Grant{EmployeeID: in.EmployeeID, CompanyID: in.CompanyID, Date: in.Date, Hours: in.Hours, Reason: in.Reason, GrantedBy: in.GrantedBy}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO extra_hours (employee_id, company_id, date, hours, reason, granted_by)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id, created_at
  `, in.EmployeeID, nullIfEmpty(in.CompanyID), in.Date, in.Hours, in.Reason, nullIfEmpty(in.GrantedBy)).Scan(&g.ID, &g.CreatedAt)
	return g, err
}

func (s *Store) ListCompensatory(ctx context.Context, filter ListFilter) ([]CompensatoryDay, error) {
	where, args := scopeClause("c", filter, nil)
	page, args := pageClause(filter, args)
	rows, err := s.DB.Query(ctx, `
    SELECT c.id, c.employee_id, COALESCE(c.company_id::text, ''), c.date, c.days_count::float8,
           c.reason, COALESCE(c.granted_by::text, ''), c.created_at
    FROM compensatory_days c
    WHERE 1=1`+where+`
    ORDER BY c.date DESC`+page, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CompensatoryDay{}
	for rows.Next() {
		var c CompensatoryDay
		if err := rows.Scan(&c.ID, &c.EmployeeID, &c.CompanyID, &c.Date, &c.DaysCount, &c.Reason, &c.GrantedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CreateCompensatory(ctx context.Context, in CompensatoryInput) (CompensatoryDay, error) {
	c := CompensatoryDay{EmployeeID: in.EmployeeID, CompanyID: in.CompanyID, Date: in.Date, DaysCount: in.Days, Reason: in.Reason, GrantedBy: in.GrantedBy}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO compensatory_days (employee_id, company_id, date, days_count, reason, granted_by)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id, created_at
  `, in.EmployeeID, nullIfEmpty(in.CompanyID), in.Date, in.Days, in.Reason, nullIfEmpty(in.GrantedBy)).Scan(&c.ID, &c.CreatedAt)
	return c, err
}

const requestSelect = `
    SELECT r.id, r.employee_id, p.full_name, COALESCE(r.company_id::text, ''), r.requested_date,
           r.hours_requested::float8, r.reason, r.status, r.admin_comments,
           COALESCE(r.approved_by::text, ''), r.approved_at, r.created_at
    FROM extra_hours_requests r
    JOIN profiles p ON p.id = r.employee_id`

func scanRequest(row pgx.Row) (UsageRequest, error) {
	var r UsageRequest
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.CompanyID, &r.RequestedDate, &r.HoursRequested,
		&r.Reason, &r.Status, &r.AdminComments, &r.ApprovedBy, &r.ApprovedAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return UsageRequest{}, ErrNotFound
	}
	return r, err
}

func (s *Store) ListRequests(ctx context.Context, filter ListFilter) ([]UsageRequest, error) {
	where, args := scopeClause("r", filter, nil)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND r.status = $%d", len(args))
	}
	page, args := pageClause(filter, args)
	rows, err := s.DB.Query(ctx, requestSelect+`
    WHERE 1=1`+where+`
    ORDER BY r.created_at DESC`+page, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []UsageRequest{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetRequest(ctx context.Context, companyID, requestID string) (UsageRequest, error) {
	return scanRequest(s.DB.QueryRow(ctx, requestSelect+`
    WHERE r.id = $1 AND ($2 = '' OR r.company_id::text = $2)`, requestID, companyID))
}

func (s *Store) CreateRequest(ctx context.Context, in UsageInput) (UsageRequest, error) {
	r := UsageRequest{
		EmployeeID:     in.EmployeeID,
		CompanyID:      in.CompanyID,
		RequestedDate:  in.Date,
		HoursRequested: in.Hours,
		Reason:         in.Reason,
		Status:         StatusPending,
	}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO extra_hours_requests (employee_id, company_id, requested_date, hours_requested, reason)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id, created_at
  `, in.EmployeeID, nullIfEmpty(in.CompanyID), in.Date, in.Hours, in.Reason).Scan(&r.ID, &r.CreatedAt)
	return r, err
}

// DecideRequest moves a pending request to status. Approvals take a
// per-employee transaction lock and re-check the balance so two concurrent
// approvals cannot overdraw it.
func (s *Store) DecideRequest(ctx context.Context, requestID, status, approverID, comments string) (bool, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var employeeID string
	var hours float64
	err = tx.QueryRow(ctx, `
    SELECT employee_id, hours_requested::float8
    FROM extra_hours_requests
    WHERE id = $1 AND status = 'pending'
    FOR UPDATE
  `, requestID).Scan(&employeeID, &hours)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lock request: %w", err)
	}

	if status == StatusApproved {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", employeeID); err != nil {
			return false, fmt.Errorf("lock balance: %w", err)
		}
		totals, err := totalsOn(ctx, tx, employeeID)
		if err != nil {
			return false, err
		}
		if hours > Available(totals) {
			return false, ErrInsufficientBalance
		}
	}

	tag, err := tx.Exec(ctx, `
    UPDATE extra_hours_requests
    SET status = $2, approved_by = $3, approved_at = $4, admin_comments = $5
    WHERE id = $1 AND status = 'pending'
  `, requestID, status, approverID, time.Now().UTC(), comments)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
