package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"timeclock/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const recordSelect = `
    SELECT r.id, r.employee_id, p.full_name, p.email, COALESCE(r.company_id::text, ''), r.month, r.year,
           r.base_salary::text, r.overtime::text, r.deductions::text, r.bonuses::text, r.net_salary::text,
           r.status, r.document_path, r.created_at, r.updated_at
    FROM payroll_records r
    JOIN profiles p ON p.id = r.employee_id`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var base, overtime, deductions, bonuses, net string
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.EmployeeName, &rec.EmployeeEmail, &rec.CompanyID, &rec.Month, &rec.Year,
		&base, &overtime, &deductions, &bonuses, &net, &rec.Status, &rec.DocumentPath, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	amounts := []*decimal.Decimal{&rec.BaseSalary, &rec.Overtime, &rec.Deductions, &rec.Bonuses, &rec.NetSalary}
	for i, raw := range []string{base, overtime, deductions, bonuses, net} {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return Record{}, fmt.Errorf("parse amount %q: %w", raw, err)
		}
		*amounts[i] = value
	}
	rec.HasDocument = rec.DocumentPath != ""
	return rec, nil
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	query := recordSelect + " WHERE 1=1"
	args := []any{}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += fmt.Sprintf(" AND r.company_id::text = $%d", len(args))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		query += fmt.Sprintf(" AND r.employee_id = $%d", len(args))
	}
	if filter.Year > 0 {
		args = append(args, filter.Year)
		query += fmt.Sprintf(" AND r.year = $%d", len(args))
	}
	if filter.Month > 0 {
		args = append(args, filter.Month)
		query += fmt.Sprintf(" AND r.month = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND r.status = $%d", len(args))
	}
	query += " ORDER BY r.year DESC, r.month DESC, p.full_name"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, companyID, recordID string) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, recordSelect+`
    WHERE r.id = $1 AND ($2 = '' OR r.company_id::text = $2)`, recordID, companyID))
}

func (s *Store) Create(ctx context.Context, companyID string, in RecordInput, net decimal.Decimal) (Record, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_records (employee_id, company_id, month, year, base_salary, overtime, deductions, bonuses, net_salary)
    VALUES ($1,$2,$3,$4,$5::numeric,$6::numeric,$7::numeric,$8::numeric,$9::numeric)
    RETURNING id
  `, in.EmployeeID, nullIfEmpty(companyID), in.Month, in.Year,
		in.BaseSalary.String(), in.Overtime.String(), in.Deductions.String(), in.Bonuses.String(), net.String()).Scan(&id)
	if err != nil {
		return Record{}, mapUniqueViolation(err)
	}
	return s.Get(ctx, "", id)
}

func (s *Store) Update(ctx context.Context, recordID string, in RecordInput, net decimal.Decimal) (Record, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_records
    SET month = $2, year = $3, base_salary = $4::numeric, overtime = $5::numeric, deductions = $6::numeric,
        bonuses = $7::numeric, net_salary = $8::numeric, updated_at = now()
    WHERE id = $1 AND status = 'draft'
  `, recordID, in.Month, in.Year, in.BaseSalary.String(), in.Overtime.String(), in.Deductions.String(), in.Bonuses.String(), net.String())
	if err != nil {
		return Record{}, mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return Record{}, ErrNotEditable
	}
	return s.Get(ctx, "", recordID)
}

// SetStatus moves a record from one status to another, reporting false
// when it was no longer in from.
func (s *Store) SetStatus(ctx context.Context, recordID, from, to string) (bool, error) {
	tag, err := s.DB.Exec(ctx, "UPDATE payroll_records SET status = $3, updated_at = now() WHERE id = $1 AND status = $2", recordID, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) SetDocumentPath(ctx context.Context, recordID, path string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE payroll_records SET document_path = $2, updated_at = now() WHERE id = $1", recordID, path)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, recordID string) (bool, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM payroll_records WHERE id = $1 AND status = 'draft'", recordID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
