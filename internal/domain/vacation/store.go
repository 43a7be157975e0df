package vacation

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

const requestSelect = `
    SELECT r.id, r.employee_id, p.full_name, p.email, COALESCE(r.company_id::text, ''),
           r.start_date, r.end_date, r.total_days, r.status, r.reason, r.admin_comments,
           COALESCE(r.approved_by::text, ''), r.approved_at, r.created_at
    FROM vacation_requests r
    JOIN profiles p ON p.id = r.employee_id`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.EmployeeEmail, &r.CompanyID,
		&r.StartDate, &r.EndDate, &r.TotalDays, &r.Status, &r.Reason, &r.AdminComments,
		&r.ApprovedBy, &r.ApprovedAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return r, err
}

func collectRequests(rows pgx.Rows) ([]Request, error) {
	defer rows.Close()
	out := []Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListRequests(ctx context.Context, filter ListFilter) ([]Request, error) {
	query := requestSelect + " WHERE 1=1"
	args := []any{}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += fmt.Sprintf(" AND r.company_id::text = $%d", len(args))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		query += fmt.Sprintf(" AND r.employee_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND r.status = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND r.end_date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND r.start_date <= $%d", len(args))
	}
	query += " ORDER BY r.start_date DESC, r.created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func (s *Store) GetRequest(ctx context.Context, companyID, requestID string) (Request, error) {
	return scanRequest(s.DB.QueryRow(ctx, requestSelect+`
    WHERE r.id = $1 AND ($2 = '' OR r.company_id::text = $2)`, requestID, companyID))
}

func (s *Store) NonRejectedRequests(ctx context.Context, employeeID string) ([]Request, error) {
	rows, err := s.DB.Query(ctx, requestSelect+`
    WHERE r.employee_id = $1 AND r.status <> 'rejected'
    ORDER BY r.start_date`, employeeID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func (s *Store) CreateRequest(ctx context.Context, in CreateInput, totalDays int) (Request, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO vacation_requests (employee_id, company_id, start_date, end_date, total_days, status, reason)
    VALUES ($1,$2,$3,$4,$5,'pending',$6)
    RETURNING id
  `, in.EmployeeID, nullIfEmpty(in.CompanyID), in.StartDate, in.EndDate, totalDays, in.Reason).Scan(&id); err != nil {
		return Request{}, err
	}
	return Request{
		ID:         id,
		EmployeeID: in.EmployeeID,
		CompanyID:  in.CompanyID,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		TotalDays:  totalDays,
		Status:     StatusPending,
		Reason:     in.Reason,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// DecideRequest moves a pending request to d.Status and recomputes the
// balance of d's period in the same transaction. It reports false when the
// request was no longer pending.
func (s *Store) DecideRequest(ctx context.Context, d Decision) (bool, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
    UPDATE vacation_requests
    SET status = $2, approved_by = $3, approved_at = now(), admin_comments = $4
    WHERE id = $1 AND status = 'pending'
  `, d.RequestID, d.Status, d.ApproverID, d.Comments)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := recomputeOn(ctx, tx, d.EmployeeID, d.CompanyID, d.Year, d.PeriodStart, d.PeriodEnd, d.DefaultDays); err != nil {
		return false, fmt.Errorf("recompute balance: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) DeletePendingRequest(ctx context.Context, employeeID, requestID string) (bool, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM vacation_requests WHERE id = $1 AND employee_id = $2 AND status = 'pending'", requestID, employeeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const balanceColumns = "employee_id, COALESCE(company_id::text, ''), year, total_days, used_days, remaining_days, updated_at"

func scanBalance(row pgx.Row) (Balance, error) {
	var b Balance
	err := row.Scan(&b.EmployeeID, &b.CompanyID, &b.Year, &b.TotalDays, &b.UsedDays, &b.RemainingDays, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Balance{}, ErrBalanceNotFound
	}
	return b, err
}

func (s *Store) GetBalance(ctx context.Context, employeeID string, year int) (Balance, error) {
	return scanBalance(s.DB.QueryRow(ctx, "SELECT "+balanceColumns+" FROM vacation_balances WHERE employee_id = $1 AND year = $2", employeeID, year))
}

// RecomputeBalance derives used_days from approved requests starting inside
// the period and keeps remaining_days = total_days - used_days. A missing row
// is opened with defaultDays.
func (s *Store) RecomputeBalance(ctx context.Context, employeeID, companyID string, year int, periodStart, periodEnd time.Time, defaultDays int) (Balance, error) {
	return recomputeOn(ctx, s.DB, employeeID, companyID, year, periodStart, periodEnd, defaultDays)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func recomputeOn(ctx context.Context, q rowQuerier, employeeID, companyID string, year int, periodStart, periodEnd time.Time, defaultDays int) (Balance, error) {
	return scanBalance(q.QueryRow(ctx, `
    WITH used AS (
      SELECT COALESCE(SUM(total_days), 0)::int AS days
      FROM vacation_requests
      WHERE employee_id = $1 AND status = 'approved' AND start_date BETWEEN $4 AND $5
    )
    INSERT INTO vacation_balances (employee_id, company_id, year, total_days, used_days, remaining_days, updated_at)
    SELECT $1, $2, $3, $6::int, used.days, $6::int - used.days, now() FROM used
    ON CONFLICT (employee_id, year) DO UPDATE
    SET used_days = EXCLUDED.used_days,
        remaining_days = vacation_balances.total_days - EXCLUDED.used_days,
        updated_at = now()
    RETURNING `+balanceColumns,
		employeeID, nullIfEmpty(companyID), year, periodStart, periodEnd, defaultDays))
}

func (s *Store) SetBalanceTotal(ctx context.Context, employeeID, companyID string, year int, periodStart, periodEnd time.Time, totalDays int) (Balance, error) {
	return scanBalance(s.DB.QueryRow(ctx, `
    WITH used AS (
      SELECT COALESCE(SUM(total_days), 0)::int AS days
      FROM vacation_requests
      WHERE employee_id = $1 AND status = 'approved' AND start_date BETWEEN $4 AND $5
    )
    INSERT INTO vacation_balances (employee_id, company_id, year, total_days, used_days, remaining_days, updated_at)
    SELECT $1, $2, $3, $6::int, used.days, $6::int - used.days, now() FROM used
    ON CONFLICT (employee_id, year) DO UPDATE
    SET total_days = EXCLUDED.total_days,
        used_days = EXCLUDED.used_days,
        remaining_days = EXCLUDED.total_days - EXCLUDED.used_days,
        updated_at = now()
    RETURNING `+balanceColumns,
		employeeID, nullIfEmpty(companyID), year, periodStart, periodEnd, totalDays))
}

// OpenPeriod creates a balance row for year for every active profile that
// has none yet.
func (s *Store) OpenPeriod(ctx context.Context, year, defaultDays int) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO vacation_balances (employee_id, company_id, year, total_days, used_days, remaining_days)
    SELECT id, company_id, $1, $2, 0, $2 FROM profiles WHERE is_active = true
    ON CONFLICT (employee_id, year) DO NOTHING
  `, year, defaultDays)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
