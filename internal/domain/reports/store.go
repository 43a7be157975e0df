package reports

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"timeclock/internal/platform/querier"
)

var ErrJobRunNotFound = errors.New("job run not found")

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// AdminCounters reads every admin counter in a single round trip. An empty
// companyID spans all companies.
func (s *Store) AdminCounters(ctx context.Context, companyID string, today time.Time) (AdminDashboard, error) {
	var d AdminDashboard
	err := s.DB.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(1) FROM profiles WHERE is_active = true AND ($1 = '' OR company_id::text = $1)),
      (SELECT COUNT(1) FROM time_entries WHERE date = $2 AND status = 'checked_in' AND ($1 = '' OR company_id::text = $1)),
      (SELECT COUNT(1) FROM time_entries WHERE date = $2 AND status = 'checked_out' AND ($1 = '' OR company_id::text = $1)),
      (SELECT COUNT(1) FROM vacation_requests WHERE status = 'pending' AND ($1 = '' OR company_id::text = $1)),
      (SELECT COUNT(1) FROM extra_hours_requests WHERE status = 'pending' AND ($1 = '' OR company_id::text = $1)),
      (SELECT COUNT(1) FROM schedule_change_requests WHERE status = 'pending' AND ($1 = '' OR company_id::text = $1)),
      (SELECT COUNT(1) FROM payroll_records WHERE status = 'draft' AND ($1 = '' OR company_id::text = $1))
  `, companyID, today).Scan(&d.ActiveEmployees, &d.CheckedInToday, &d.CompletedToday, &d.PendingVacations,
		&d.PendingExtraHours, &d.PendingScheduleChanges, &d.DraftPayrollRecords)
	return d, err
}

// EmployeeCounters reads the employee's counters. Hours are summed over
// checked-out entries in [monthStart, monthEnd].
func (s *Store) EmployeeCounters(ctx context.Context, employeeID string, today, monthStart, monthEnd time.Time) (EmployeeDashboard, error) {
	var d EmployeeDashboard
	err := s.DB.QueryRow(ctx, `
    SELECT
      COALESCE((SELECT status FROM time_entries WHERE employee_id = $1 AND date = $2), ''),
      COALESCE((SELECT EXTRACT(EPOCH FROM SUM(total_hours)) / 3600 FROM time_entries
                WHERE employee_id = $1 AND date BETWEEN $3 AND $4 AND check_out IS NOT NULL), 0)::float8,
      (SELECT COUNT(1) FROM vacation_requests WHERE employee_id = $1 AND status = 'pending')
      + (SELECT COUNT(1) FROM extra_hours_requests WHERE employee_id = $1 AND status = 'pending')
      + (SELECT COUNT(1) FROM schedule_change_requests WHERE employee_id = $1 AND status = 'pending'),
      (SELECT COUNT(1) FROM notifications WHERE user_id = $1 AND read_at IS NULL)
  `, employeeID, today, monthStart, monthEnd).Scan(&d.TodayStatus, &d.MonthHours, &d.PendingRequests, &d.UnreadNotifications)
	return d, err
}

func (s *Store) ListJobRuns(ctx context.Context, companyID string, filter JobRunFilter, limit, offset int) ([]JobRun, error) {
	query, args := buildJobRunsBaseQuery(companyID, filter)
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []JobRun{}
	for rows.Next() {
		run, err := scanJobRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) CountJobRuns(ctx context.Context, companyID string, filter JobRunFilter) (int, error) {
	query, args := buildJobRunsBaseQuery(companyID, filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM ("+query+") job_runs", args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) JobRunByID(ctx context.Context, companyID, runID string) (JobRun, error) {
	run, err := scanJobRun(s.DB.QueryRow(ctx, `
    SELECT id, COALESCE(company_id::text, ''), job_type, status, COALESCE(details_json, '{}'::jsonb), created_at, completed_at
    FROM job_runs
    WHERE id = $1 AND ($2 = '' OR company_id::text = $2)
  `, runID, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return JobRun{}, ErrJobRunNotFound
	}
	return run, err
}

func scanJobRun(row pgx.Row) (JobRun, error) {
	var run JobRun
	var detailsRaw []byte
	if err := row.Scan(&run.ID, &run.CompanyID, &run.JobType, &run.Status, &detailsRaw, &run.CreatedAt, &run.CompletedAt); err != nil {
		return JobRun{}, err
	}
	run.Details = decodeDetails(detailsRaw)
	return run, nil
}

func buildJobRunsBaseQuery(companyID string, filter JobRunFilter) (string, []any) {
	query := `
    SELECT id, COALESCE(company_id::text, ''), job_type, status, COALESCE(details_json, '{}'::jsonb), created_at, completed_at
    FROM job_runs
    WHERE ($1 = '' OR company_id::text = $1)
  `
	args := []any{companyID}

	if value := strings.TrimSpace(filter.JobType); value != "" {
		query += " AND job_type = $" + strconv.Itoa(len(args)+1)
		args = append(args, value)
	}
	if value := strings.TrimSpace(filter.Status); value != "" {
		query += " AND status = $" + strconv.Itoa(len(args)+1)
		args = append(args, value)
	}
	if filter.StartedFrom != nil && !filter.StartedFrom.IsZero() {
		query += " AND created_at >= $" + strconv.Itoa(len(args)+1)
		args = append(args, *filter.StartedFrom)
	}
	if filter.StartedTo != nil && !filter.StartedTo.IsZero() {
		query += " AND created_at <= $" + strconv.Itoa(len(args)+1)
		args = append(args, *filter.StartedTo)
	}

	return query, args
}

func decodeDetails(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	details := map[string]any{}
	if err := json.Unmarshal(raw, &details); err != nil {
		return map[string]any{
			"raw": string(raw),
		}
	}
	return details
}
