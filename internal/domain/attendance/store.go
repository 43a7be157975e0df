package attendance

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

const entryColumns = `t.id, t.employee_id, p.full_name, p.email, COALESCE(t.company_id::text, ''), t.date,
           t.check_in, t.check_out, t.check_in_lat, t.check_in_lng, t.check_out_lat, t.check_out_lng,
           COALESCE(t.total_hours::text, ''), t.status, t.notes, t.created_at, t.updated_at`

const entrySelect = `
    SELECT ` + entryColumns + `
    FROM time_entries t
    JOIN profiles p ON p.id = t.employee_id`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.EmployeeID, &e.EmployeeName, &e.EmployeeEmail, &e.CompanyID, &e.Date,
		&e.CheckIn, &e.CheckOut, &e.CheckInLat, &e.CheckInLng, &e.CheckOutLat, &e.CheckOutLng,
		&e.TotalDuration, &e.Status, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Entry{}, err
	}
	e.TotalHours = round2(ParseDurationHours(e.TotalDuration))
	return e, nil
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	out := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func coords(c *Coordinates) (any, any) {
	if c == nil {
		return nil, nil
	}
	return c.Lat, c.Lng
}

// CheckIn inserts today's entry. The (employee_id, date) unique key makes a
// second check-in on the same day return ErrAlreadyCheckedIn.
func (s *Store) CheckIn(ctx context.Context, in PunchInput, date, at time.Time) (Entry, error) {
	lat, lng := coords(in.Coordinates)
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO time_entries (employee_id, company_id, date, check_in, check_in_lat, check_in_lng, status, notes)
    VALUES ($1,$2,$3,$4,$5,$6,'checked_in',$7)
    ON CONFLICT (employee_id, date) DO NOTHING
    RETURNING id
  `, in.EmployeeID, nullIfEmpty(in.CompanyID), date, at, lat, lng, in.Notes).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrAlreadyCheckedIn
	}
	if err != nil {
		return Entry{}, err
	}
	return s.Get(ctx, "", id)
}

// CheckOut closes the employee's most recent open entry.
func (s *Store) CheckOut(ctx context.Context, in PunchInput, at time.Time) (Entry, error) {
	lat, lng := coords(in.Coordinates)
	var id string
	err := s.DB.QueryRow(ctx, `
    UPDATE time_entries
    SET check_out = $2, check_out_lat = $3, check_out_lng = $4, status = 'checked_out',
        notes = CASE WHEN $5 = '' THEN notes ELSE $5 END, updated_at = now()
    WHERE id = (
      SELECT id FROM time_entries
      WHERE employee_id = $1 AND status = 'checked_in'
      ORDER BY check_in DESC
      LIMIT 1
    )
    RETURNING id
  `, in.EmployeeID, at, lat, lng, in.Notes).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotCheckedIn
	}
	if err != nil {
		return Entry{}, err
	}
	return s.Get(ctx, "", id)
}

func (s *Store) EntryForDate(ctx context.Context, employeeID string, date time.Time) (*Entry, error) {
	e, err := scanEntry(s.DB.QueryRow(ctx, entrySelect+`
    WHERE t.employee_id = $1 AND t.date = $2`, employeeID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) EntriesBetween(ctx context.Context, employeeID string, from, to time.Time) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, entrySelect+`
    WHERE t.employee_id = $1 AND t.date BETWEEN $2 AND $3
    ORDER BY t.date`, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	query := entrySelect + " WHERE 1=1"
	args := []any{}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += fmt.Sprintf(" AND t.company_id::text = $%d", len(args))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		query += fmt.Sprintf(" AND t.employee_id = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND t.date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND t.date <= $%d", len(args))
	}
	query += " ORDER BY t.date DESC, p.full_name"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

func (s *Store) Get(ctx context.Context, companyID, entryID string) (Entry, error) {
	e, err := scanEntry(s.DB.QueryRow(ctx, entrySelect+`
    WHERE t.id = $1 AND ($2 = '' OR t.company_id::text = $2)`, entryID, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

func (s *Store) Update(ctx context.Context, entryID string, checkIn time.Time, checkOut *time.Time, notes string) (Entry, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE time_entries
    SET check_in = $2, check_out = $3,
        status = CASE WHEN $3::timestamptz IS NULL THEN 'checked_in' ELSE 'checked_out' END,
        notes = $4, updated_at = now()
    WHERE id = $1
  `, entryID, checkIn, checkOut, notes)
	if err != nil {
		return Entry{}, err
	}
	if tag.RowsAffected() == 0 {
		return Entry{}, ErrNotFound
	}
	return s.Get(ctx, "", entryID)
}

func (s *Store) Delete(ctx context.Context, companyID, entryID string) (bool, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM time_entries WHERE id = $1 AND ($2 = '' OR company_id::text = $2)", entryID, companyID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// InsertRegularized writes synthesized closed entries in one batch inside a
// transaction. Dates that gained an entry meanwhile are skipped.
func (s *Store) InsertRegularized(ctx context.Context, employeeID, companyID string, entries []PlannedEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
    INSERT INTO time_entries (employee_id, company_id, date, check_in, check_out, status, notes)
    VALUES ($1,$2,$3,$4,$5,'checked_out',$6)
    ON CONFLICT (employee_id, date) DO NOTHING
  `, employeeID, nullIfEmpty(companyID), e.Date, e.CheckIn, e.CheckOut, regularizedNote)
	}

	results := tx.SendBatch(ctx, batch)
	var inserted int64
	for range entries {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, fmt.Errorf("insert regularized entry: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
