package companies

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

const companyColumns = "id, name, tax_id, is_active, created_at, updated_at"

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Name, &c.TaxID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrNotFound
	}
	return c, err
}

func (s *Store) List(ctx context.Context, includeInactive bool) ([]Company, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+companyColumns+`
    FROM companies
    WHERE $1 OR is_active = true
    ORDER BY name
  `, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Company, error) {
	return scanCompany(s.DB.QueryRow(ctx, "SELECT "+companyColumns+" FROM companies WHERE id = $1", id))
}

func (s *Store) Create(ctx context.Context, in CompanyInput) (Company, error) {
	c, err := scanCompany(s.DB.QueryRow(ctx, `
    INSERT INTO companies (name, tax_id)
    VALUES ($1,$2)
    RETURNING `+companyColumns, in.Name, in.TaxID))
	return c, mapUniqueViolation(err)
}

func (s *Store) Update(ctx context.Context, id string, in CompanyInput) (Company, error) {
	c, err := scanCompany(s.DB.QueryRow(ctx, `
    UPDATE companies SET name = $2, tax_id = $3, updated_at = now()
    WHERE id = $1
    RETURNING `+companyColumns, id, in.Name, in.TaxID))
	return c, mapUniqueViolation(err)
}

func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := s.DB.Exec(ctx, "UPDATE companies SET is_active = $2, updated_at = now() WHERE id = $1", id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Stats(ctx context.Context, id string) (Stats, error) {
	stats := Stats{CompanyID: id}
	err := s.DB.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(1) FROM profiles WHERE company_id = $1),
      (SELECT COUNT(1) FROM profiles WHERE company_id = $1 AND is_active = true),
      (SELECT COUNT(1) FROM profiles WHERE company_id = $1 AND role = 'admin'),
      (SELECT COUNT(1) FROM vacation_requests WHERE company_id = $1 AND status = 'pending')
        + (SELECT COUNT(1) FROM extra_hours_requests WHERE company_id = $1 AND status = 'pending')
        + (SELECT COUNT(1) FROM schedule_change_requests WHERE company_id = $1 AND status = 'pending')
  `, id).Scan(&stats.Employees, &stats.ActiveEmployees, &stats.Admins, &stats.PendingRequests)
	return stats, err
}

// BackfillCompany adopts every row of table with a NULL company_id into
// companyID. Only LegacyTables are accepted since the name is interpolated.
func (s *Store) BackfillCompany(ctx context.Context, table, companyID string) (int64, error) {
	if !isLegacyTable(table) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	tag, err := s.DB.Exec(ctx, "UPDATE "+table+" SET company_id = $1 WHERE company_id IS NULL", companyID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrNameTaken
	}
	return err
}
