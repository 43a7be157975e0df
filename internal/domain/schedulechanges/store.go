package schedulechanges

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
    SELECT r.id, r.employee_id, p.full_name, p.email, COALESCE(r.company_id::text, ''), r.requested_date,
           r.current_check_in, r.current_check_out, r.requested_check_in, r.requested_check_out,
           r.reason, r.status, r.admin_comments, COALESCE(r.approved_by::text, ''), r.approved_at, r.created_at
    FROM schedule_change_requests r
    JOIN profiles p ON p.id = r.employee_id`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.EmployeeEmail, &r.CompanyID, &r.RequestedDate,
		&r.CurrentCheckIn, &r.CurrentCheckOut, &r.RequestedCheckIn, &r.RequestedCheckOut,
		&r.Reason, &r.Status, &r.AdminComments, &r.ApprovedBy, &r.ApprovedAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return r, err
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]Request, error) {
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
		query += fmt.Sprintf(" AND r.requested_date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND r.requested_date <= $%d", len(args))
	}
	query += " ORDER BY r.created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
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

func (s *Store) Get(ctx context.Context, companyID, requestID string) (Request, error) {
	return scanRequest(s.DB.QueryRow(ctx, requestSelect+`
    WHERE r.id = $1 AND ($2 = '' OR r.company_id::text = $2)`, requestID, companyID))
}

func (s *Store) CurrentTimes(ctx context.Context, employeeID string, date time.Time) (*time.Time, *time.Time, error) {
	var in time.Time
	var out *time.Time
	err := s.DB.QueryRow(ctx, "SELECT check_in, check_out FROM time_entries WHERE employee_id = $1 AND date = $2", employeeID, date).Scan(&in, &out)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &in, out, nil
}

func (s *Store) Create(ctx context.Context, in CreateInput, currentIn, currentOut *time.Time) (Request, error) {
	r := Request{
		EmployeeID:        in.EmployeeID,
		CompanyID:         in.CompanyID,
		RequestedDate:     in.RequestedDate,
		CurrentCheckIn:    currentIn,
		CurrentCheckOut:   currentOut,
		RequestedCheckIn:  in.RequestedCheckIn,
		RequestedCheckOut: in.RequestedCheckOut,
		Reason:            in.Reason,
		Status:            StatusPending,
	}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO schedule_change_requests
      (employee_id, company_id, requested_date, current_check_in, current_check_out, requested_check_in, requested_check_out, reason)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id, created_at
  `, in.EmployeeID, nullIfEmpty(in.CompanyID), in.RequestedDate, currentIn, currentOut,
		in.RequestedCheckIn, in.RequestedCheckOut, in.Reason).Scan(&r.ID, &r.CreatedAt)
	return r, err
}

// Decide closes a pending request. Approval also rewrites the employee's time
// entry for the requested date, in the same transaction. It reports whether
// an entry was updated.
func (s *Store) Decide(ctx context.Context, req Request, status, approverID, comments string) (bool, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
    UPDATE schedule_change_requests
    SET status = $2, approved_by = $3, approved_at = now(), admin_comments = $4
    WHERE id = $1 AND status = 'pending'
  `, req.ID, status, approverID, comments)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, ErrInvalidState
	}

	applied := false
	if status == StatusApproved {
		tag, err := tx.Exec(ctx, `
      UPDATE time_entries
      SET check_in = $3, check_out = $4, status = 'checked_out', updated_at = now()
      WHERE employee_id = $1 AND date = $2
    `, req.EmployeeID, req.RequestedDate, req.RequestedCheckIn, req.RequestedCheckOut)
		if err != nil {
			return false, fmt.Errorf("apply schedule change: %w", err)
		}
		applied = tag.RowsAffected() > 0
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return applied, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
