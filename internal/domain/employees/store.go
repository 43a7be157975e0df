package employees

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"timeclock/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const employeeSelect = `
    SELECT id, COALESCE(company_id::text, ''), full_name, email, role, department, employee_id, hire_date,
           is_active, created_at, updated_at
    FROM profiles`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.CompanyID, &e.FullName, &e.Email, &e.Role, &e.Department, &e.EmployeeCode, &e.HireDate,
		&e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return e, err
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]Employee, error) {
	query := employeeSelect + " WHERE 1=1"
	args := []any{}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += fmt.Sprintf(" AND company_id::text = $%d", len(args))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		query += fmt.Sprintf(" AND is_active = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (full_name ILIKE $%d OR email ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY full_name"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, companyID, employeeID string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, employeeSelect+`
    WHERE id = $1 AND ($2 = '' OR company_id::text = $2)`, employeeID, companyID))
}

func (s *Store) Update(ctx context.Context, employeeID string, in UpdateInput) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, `
    UPDATE profiles
    SET full_name = $2, department = $3, employee_id = $4, hire_date = $5, role = $6, updated_at = now()
    WHERE id = $1
    RETURNING id, COALESCE(company_id::text, ''), full_name, email, role, department, employee_id, hire_date,
              is_active, created_at, updated_at
  `, employeeID, in.FullName, in.Department, in.EmployeeCode, in.HireDate, in.Role))
}

func (s *Store) SetActive(ctx context.Context, employeeID string, active bool) error {
	tag, err := s.DB.Exec(ctx, "UPDATE profiles SET is_active = $2, updated_at = now() WHERE id = $1", employeeID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateWithIdentity inserts the users row, its profile and the opening
// vacation balance in one transaction.
func (s *Store) CreateWithIdentity(ctx context.Context, in CreateInput, passwordHash string, vacationYear, vacationDays int) (Employee, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Employee{}, err
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx, "INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id", in.Email, passwordHash).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Employee{}, ErrEmailTaken
		}
		return Employee{}, fmt.Errorf("insert identity: %w", err)
	}

	emp, err := scanEmployee(tx.QueryRow(ctx, `
    INSERT INTO profiles (id, company_id, full_name, email, role, department, employee_id)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id, COALESCE(company_id::text, ''), full_name, email, role, department, employee_id, hire_date,
              is_active, created_at, updated_at
  `, id, nullIfEmpty(in.CompanyID), in.FullName, in.Email, in.Role, in.Department, in.EmployeeCode))
	if err != nil {
		return Employee{}, fmt.Errorf("insert profile: %w", err)
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO vacation_balances (employee_id, company_id, year, total_days, used_days, remaining_days)
    VALUES ($1, $2, $3, $4, 0, $4)
    ON CONFLICT (employee_id, year) DO NOTHING
  `, id, nullIfEmpty(in.CompanyID), vacationYear, vacationDays); err != nil {
		return Employee{}, fmt.Errorf("open vacation balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Store) PayrollDocumentPaths(ctx context.Context, employeeID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT document_path FROM payroll_records WHERE employee_id = $1 AND document_path <> ''", employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		out = append(out, path)
	}
	return out, rows.Err()
}

// DeleteRows removes the employee's rows from one of DependentTables.
func (s *Store) DeleteRows(ctx context.Context, table, employeeID string) (int64, error) {
	if !isDependentTable(table) {
		return 0, ErrUnknownTable
	}
	tag, err := s.DB.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, ownerColumn(table)), employeeID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) DeleteIdentity(ctx context.Context, employeeID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM users WHERE id = $1", employeeID)
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
